package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/alerts"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/storage"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "buzz",
	Short: "AI-Buzz developer tools - pricing, status and error decoder API",
	Long: `buzz runs the AI-Buzz developer tools API (pricing calculator, error
decoder, provider status) and the maintenance jobs around it: pricing
sync from LiteLLM, usage analytics pulls and WordPress content sync.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.buzz/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	return newLoggerTo(os.Stderr, cfg)
}

func newLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage opens the database. An empty path disables storage and
// returns nil.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Path == "" {
		return nil, nil
	}
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

func initCatalog(cfg *config.Config) *catalog.Store {
	return catalog.NewStore(cfg.Data.Dir)
}

// initWordPress returns a configured WordPress client or an error naming
// the missing credentials.
func initWordPress(cfg *config.Config, logger *slog.Logger) (*wordpress.Client, error) {
	wp := wordpress.NewClient(cfg.WordPress, nil, logger)
	if !wp.Configured() {
		return nil, fmt.Errorf("%w (set WORDPRESS_USERNAME and WORDPRESS_APP_PASSWORD)", wordpress.ErrNotConfigured)
	}
	return wp, nil
}

var (
	bold    = color.New(color.Bold).SprintfFunc()
	success = color.New(color.FgGreen).SprintfFunc()
	warning = color.New(color.FgYellow).SprintfFunc()
	failure = color.New(color.FgRed).SprintfFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintfFunc()
)
