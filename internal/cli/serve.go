package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
	"github.com/ogulcanaydogan/ai-buzz-tools/internal/server"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/mailchimp"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/status"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tools API",
	Long:  `Serve the pricing, error decoder, status, widget and analytics endpoints over HTTP.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config, PORT wins)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
		cfg.Server.Port = ""
	}
	return Serve(cfg)
}

// Serve wires the API from cfg and runs it until SIGINT or SIGTERM.
func Serve(cfg *config.Config) error {
	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	cat := initCatalog(cfg)
	prober := status.NewProber(nil).
		WithTimeout(cfg.Status.Timeout).
		WithDegradedThreshold(cfg.Status.DegradedAfter)
	agg := status.NewAggregator(cat, prober, logger, initNotifiers(cfg)...)
	deps := server.Deps{
		Catalog:    cat,
		Counters:   analytics.NewCounters(logger),
		Status:     agg,
		Subscriber: mailchimp.NewClient(cfg.Mailchimp, nil, logger),
		Storage:    store,
		Logger:     logger,
	}
	api := server.NewServer(deps, server.Options{
		APIBaseURL:  cfg.Server.APIBaseURL,
		GitCommit:   cfg.Server.GitCommit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tools api started", "listen", addr, "version", server.Version, "commit", cfg.Server.GitCommit)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(ctx)
		agg.Wait()
		return err
	}
}
