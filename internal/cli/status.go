package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every provider API once",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	prober := status.NewProber(nil).
		WithTimeout(cfg.Status.Timeout).
		WithDegradedThreshold(cfg.Status.DegradedAfter)
	report, _, err := status.NewAggregator(initCatalog(cfg), prober, logger).Check(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Overall: %s\n\n", stateColor(status.State(report.OverallStatus)))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  PROVIDER\tSTATUS\tLATENCY\tERROR\n")
	for _, p := range report.Providers {
		latency := "-"
		if p.LatencyMS != nil {
			latency = fmt.Sprintf("%dms", *p.LatencyMS)
		}
		errText := ""
		if p.Error != nil {
			errText = *p.Error
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Name, stateColor(p.Status), latency, errText)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d operational, %d degraded, %d down\n", report.OperationalCount, report.DegradedCount, report.DownCount)
	return nil
}

func stateColor(s status.State) string {
	switch s {
	case status.Operational:
		return success("%s", s)
	case status.Degraded:
		return warning("%s", s)
	default:
		return failure("%s", s)
	}
}
