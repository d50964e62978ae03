package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/ga4"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/mailchimp"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

// Config holds all AI-Buzz tools configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Data      DataConfig       `mapstructure:"data"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Status    StatusConfig     `mapstructure:"status"`
	Mailchimp mailchimp.Config `mapstructure:"mailchimp"`
	WordPress wordpress.Config `mapstructure:"wordpress"`
	GA4       ga4.Config       `mapstructure:"ga4"`
	Alerts    AlertsConfig     `mapstructure:"alerts"`
	Analytics AnalyticsConfig  `mapstructure:"analytics"`
	Content   ContentConfig    `mapstructure:"content"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig defines the HTTP service settings.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	GitCommit    string        `mapstructure:"git_commit"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// Addr returns the listen address. A bare PORT from the platform wins
// over the configured listen address.
func (s ServerConfig) Addr() string {
	if s.Port != "" {
		return ":" + s.Port
	}
	return s.Listen
}

// DataConfig locates the JSON catalogs.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// StorageConfig defines database settings. An empty path disables storage.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// StatusConfig tunes the provider probes.
type StatusConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	DegradedAfter time.Duration `mapstructure:"degraded_after"`
}

// AlertsConfig defines outage notification integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// AnalyticsConfig controls where reports are pulled from and written to.
type AnalyticsConfig struct {
	Dir       string `mapstructure:"dir"`
	RemoteURL string `mapstructure:"remote_url"`
}

// ContentConfig locates the WordPress page and guide sources.
type ContentConfig struct {
	PagesDir  string `mapstructure:"pages_dir"`
	GuidesDir string `mapstructure:"guides_dir"`
	PullDir   string `mapstructure:"pull_dir"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envAliases binds the variable names the deployment already uses.
var envAliases = map[string][]string{
	"server.port":              {"PORT"},
	"server.api_base_url":      {"API_BASE_URL"},
	"server.git_commit":        {"RENDER_GIT_COMMIT"},
	"mailchimp.api_key":        {"MAILCHIMP_API_KEY"},
	"mailchimp.list_id":        {"MAILCHIMP_LIST_ID"},
	"mailchimp.server_prefix":  {"MAILCHIMP_SERVER_PREFIX"},
	"wordpress.site_url":       {"WORDPRESS_SITE_URL", "WP_SITE_URL"},
	"wordpress.username":       {"WORDPRESS_USERNAME", "WP_USERNAME"},
	"wordpress.app_password":   {"WORDPRESS_APP_PASSWORD", "WP_APP_PASSWORD"},
	"ga4.property_id":          {"GA4_PROPERTY_ID"},
	"ga4.credentials_file":     {"GOOGLE_APPLICATION_CREDENTIALS"},
	"alerts.slack.webhook_url": {"SLACK_WEBHOOK_URL"},
	"analytics.remote_url":     {"API_BASE_URL"},
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".buzz"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("BUZZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, "BUZZ_" + envName(key)}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("server.listen", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.api_base_url", "https://ai-buzz-tools.onrender.com")
	v.SetDefault("server.git_commit", "local")
	v.SetDefault("server.cors_origins", []string{
		"https://ai-buzz.com",
		"https://www.ai-buzz.com",
		"http://localhost:3000",
		"http://localhost:8000",
		"http://127.0.0.1:8000",
	})
	v.SetDefault("data.dir", "data")
	v.SetDefault("storage.path", filepath.Join(home, ".buzz", "buzz.db"))
	v.SetDefault("status.timeout", "10s")
	v.SetDefault("status.degraded_after", "2s")
	v.SetDefault("mailchimp.server_prefix", mailchimp.DefaultServerPrefix)
	v.SetDefault("wordpress.site_url", wordpress.DefaultSiteURL)
	v.SetDefault("wordpress.requests_per_second", 2)
	v.SetDefault("ga4.endpoint", ga4.DefaultEndpoint)
	v.SetDefault("alerts.slack.channel", "#ai-buzz-status")
	v.SetDefault("analytics.dir", "analytics")
	v.SetDefault("analytics.remote_url", "https://ai-buzz-tools.onrender.com")
	v.SetDefault("content.pages_dir", "wordpress/pages")
	v.SetDefault("content.guides_dir", "wordpress/guides")
	v.SetDefault("content.pull_dir", "wordpress/pulled")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
