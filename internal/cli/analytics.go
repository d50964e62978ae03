package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/ga4"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"
)

const reportFile = "latest_report.md"

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Pull and report tool usage analytics",
}

var pullStatsCmd = &cobra.Command{
	Use:   "pull-stats",
	Short: "Save the API usage counters to a dated JSON file",
	RunE:  runPullStats,
}

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Show error patterns and pricing models worth adding",
	RunE:  runGaps,
}

var analyticsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown analytics report",
	RunE:  runAnalyticsReport,
}

var pullGA4Cmd = &cobra.Command{
	Use:   "pull-ga4",
	Short: "Save GA4 events, traffic and funnels to dated JSON files",
	RunE:  runPullGA4,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived counter snapshots",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(pullStatsCmd, gapsCmd, analyticsReportCmd, pullGA4Cmd, historyCmd)

	analyticsCmd.PersistentFlags().Bool("local", false, "Read from a local API ("+analytics.LocalURL+")")
	pullGA4Cmd.Flags().Int("days", 30, "Days of data to pull")
	historyCmd.Flags().Int("days", 30, "Days of history to list")
	historyCmd.Flags().String("source", "", "Filter by source (local, remote, reset)")
}

func initRemote(cmd *cobra.Command, cfg *config.Config) *analytics.Remote {
	base := cfg.Analytics.RemoteURL
	if local, _ := cmd.Flags().GetBool("local"); local {
		base = analytics.LocalURL
	}
	return analytics.NewRemote(base, nil)
}

func sourceLabel(cmd *cobra.Command) string {
	if local, _ := cmd.Flags().GetBool("local"); local {
		return "local"
	}
	return "production"
}

// writeJSON atomically writes v as indented JSON to dir/name.
func writeJSON(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func runPullStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	remote := initRemote(cmd, cfg)

	stats, err := remote.Stats(cmd.Context())
	if err != nil {
		return err
	}
	now := time.Now()
	path, err := writeJSON(cfg.Analytics.Dir, "stats_"+now.Format("20060102_150405")+".json", stats)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, success("Saved %s", path))
	d := stats.Data
	fmt.Fprintf(out, "  Decoder:    %d total, %d matched, %d unmatched\n", d.ErrorDecoder.Total, d.ErrorDecoder.Matched, d.ErrorDecoder.Unmatched)
	fmt.Fprintf(out, "  Calculator: %d calculations\n", d.PricingCalculator.Total)
	fmt.Fprintf(out, "  Status:     %d checks\n", d.StatusPage.Total)

	if err := archiveSnapshot(cmd.Context(), cfg, d, now); err != nil {
		logger.Warn("archive snapshot", "error", err)
	}
	return nil
}

func archiveSnapshot(ctx context.Context, cfg *config.Config, s analytics.Snapshot, at time.Time) error {
	store, err := initStorage(cfg)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	rec, err := analytics.Archive(s, model.SourceRemote, at)
	if err != nil {
		return err
	}
	return store.SaveSnapshot(ctx, rec)
}

func runGaps(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gaps, err := initRemote(cmd, cfg).Gaps(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading("=== Error Patterns to Add ==="))
	if len(gaps.ErrorPatternsToAdd) == 0 {
		fmt.Fprintln(out, "  none")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  HASH\tCOUNT\tFIRST SEEN\tPREVIEW\n")
		for _, g := range gaps.ErrorPatternsToAdd {
			fmt.Fprintf(w, "  %s\t%d\t%s\t%s\n", g.Hash, g.Count, g.FirstSeen, g.Preview)
		}
		w.Flush()
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, heading("=== Pricing Models to Add ==="))
	if len(gaps.PricingModelsToAdd) == 0 {
		fmt.Fprintln(out, "  none")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  SEARCH TERM\tSEARCHES\n")
	for _, m := range gaps.PricingModelsToAdd {
		fmt.Fprintf(w, "  %s\t%d\n", m.SearchTerm, m.Searches)
	}
	w.Flush()
	return nil
}

func runAnalyticsReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	remote := initRemote(cmd, cfg)

	var snap *analytics.Snapshot
	if stats, err := remote.Stats(cmd.Context()); err != nil {
		logger.Warn("fetch stats", "url", remote.BaseURL(), "error", err)
	} else {
		snap = &stats.Data
	}
	var gaps *analytics.Gaps
	if resp, err := remote.Gaps(cmd.Context()); err != nil {
		logger.Warn("fetch gaps", "url", remote.BaseURL(), "error", err)
	} else {
		gaps = &resp.Gaps
	}

	report := analytics.RenderReport(snap, gaps, sourceLabel(cmd), time.Now())
	if err := os.MkdirAll(cfg.Analytics.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Analytics.Dir, reportFile)
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(report))); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), success("Report written to %s", path))
	return nil
}

func runPullGA4(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	logger := newLogger(cfg)
	out := cmd.OutOrStdout()

	if cfg.GA4.PropertyID == "" {
		printGA4Setup(cmd)
		return ga4.ErrNotConfigured
	}
	httpClient, err := ga4.NewHTTPClient(cmd.Context(), cfg.GA4.CredentialsFile)
	if err != nil {
		return fmt.Errorf("ga4 credentials: %w", err)
	}
	client := ga4.NewClient(cfg.GA4, httpClient, logger)

	stamp := time.Now().Format("20060102_150405")
	fmt.Fprintf(out, "Pulling GA4 data for the last %d days...\n", days)

	events, err := client.Events(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	traffic, err := client.Traffic(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("traffic: %w", err)
	}
	funnels, err := client.Funnels(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("funnels: %w", err)
	}

	for name, v := range map[string]any{
		"ga4_events_" + stamp + ".json":  events,
		"ga4_traffic_" + stamp + ".json": traffic,
		"ga4_funnels_" + stamp + ".json": funnels,
	} {
		path, err := writeJSON(cfg.Analytics.Dir, name, v)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, success("Saved %s", path))
	}

	fmt.Fprintln(out)
	if funnels.SetupRequired != "" {
		fmt.Fprintln(out, warning("%s", funnels.SetupRequired))
	}
	if funnels.Note != "" {
		fmt.Fprintln(out, funnels.Note)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  TOOL\tUSED\tSIGNUPS\tCONVERSION\n")
	for _, tool := range slices.Sorted(maps.Keys(funnels.Funnels)) {
		f := funnels.Funnels[tool]
		fmt.Fprintf(w, "  %s\t%d\t%d\t%.2f%%\n", tool, f.ToolUsed, f.EmailSignup, f.EmailConversionRate)
	}
	w.Flush()
	fmt.Fprintf(out, "\nTop pages: %d tracked\n", len(traffic.Pages))
	return nil
}

func printGA4Setup(cmd *cobra.Command) {
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, failure("GA4 is not configured."))
	fmt.Fprintln(out, `
To pull GA4 data:
  1. Create a service account in Google Cloud with the Analytics Data API enabled
  2. Grant it Viewer access to the GA4 property
  3. Set GA4_PROPERTY_ID and GOOGLE_APPLICATION_CREDENTIALS (or ga4.credentials_file)`)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	source, _ := cmd.Flags().GetString("source")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("storage is disabled: set storage.path")
	}
	defer store.Close()

	start, end := model.LastDays(days, time.Now())
	snaps, err := store.ListSnapshots(cmd.Context(), model.Filter{
		Source:    model.SnapshotSource(source),
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots archived.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  CAPTURED\tSOURCE\tSTARTED\tDECODES\tCALCULATIONS\tSTATUS CHECKS\n")
	for _, s := range snaps {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\t%d\n",
			s.CapturedAt.Local().Format("2006-01-02 15:04"), s.Source, s.StartedAt, s.Decodes, s.Calculations, s.StatusChecks)
	}
	w.Flush()
	return nil
}
