package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/decoder"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [error message]",
	Short: "Explain an API error message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pats, err := initCatalog(cfg).Patterns()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	m, ok := decoder.Decode(strings.Join(args, " "), pats.Patterns)
	if !ok {
		fmt.Fprintln(out, warning("No known pattern matched. Things to check:"))
		for _, s := range decoder.Suggestions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
		return nil
	}

	severity := failure
	if m.Pattern.Severity == catalog.SeverityWarning {
		severity = warning
	}
	fmt.Fprintln(out, severity("%s", m.Pattern.Title))
	fmt.Fprintf(out, "Provider:   %s\n", m.Pattern.Provider)
	fmt.Fprintf(out, "Confidence: %s (%s)\n", m.Confidence, strings.Join(m.MatchedKeywords, ", "))
	fmt.Fprintf(out, "\n%s\n\n%s %s\n", m.Pattern.Explanation, bold("Fix:"), m.Pattern.Fix)
	if m.Pattern.DocsURL != "" {
		fmt.Fprintf(out, "Docs: %s\n", m.Pattern.DocsURL)
	}
	return nil
}
