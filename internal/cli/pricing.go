package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/litellm"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/tokenizer"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect and refresh the pricing catalog",
}

var pricingSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the pricing catalog from LiteLLM",
	Long: `Fetch the LiteLLM model price feed and merge it into the pricing catalog.
Without --apply the changes are only printed.`,
	RunE: runPricingSync,
}

var pricingCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate monthly cost across all models",
	RunE:  runPricingCalc,
}

var pricingTokensCmd = &cobra.Command{
	Use:   "tokens [text]",
	Short: "Count the tokens of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPricingTokens,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingSyncCmd, pricingCalcCmd, pricingTokensCmd)

	pricingSyncCmd.Flags().Bool("apply", false, "Write the merged catalog")
	pricingSyncCmd.Flags().BoolP("verbose", "v", false, "Print every change")
	pricingSyncCmd.Flags().String("source", litellm.FeedURL, "Feed URL")

	pricingCalcCmd.Flags().Int64P("input", "i", 1_000_000, "Monthly input tokens")
	pricingCalcCmd.Flags().Int64P("output", "o", 500_000, "Monthly output tokens")
	pricingCalcCmd.Flags().StringP("model", "m", "", "Selected model (provider/model)")
	pricingCalcCmd.Flags().IntP("top", "n", 0, "Show only the cheapest N models")

	pricingTokensCmd.Flags().StringP("model", "m", "openai/gpt-4o", "Model to count for (provider/model)")
}

func runPricingSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	apply, _ := cmd.Flags().GetBool("apply")
	verbose, _ := cmd.Flags().GetBool("verbose")
	source, _ := cmd.Flags().GetString("source")

	logger := newLogger(cfg)
	path := initCatalog(cfg).Path(catalog.PricingFile)
	res, err := litellm.NewSyncer(path, nil, logger).WithURL(source).Run(cmd.Context(), apply)
	if err != nil {
		return fmt.Errorf("sync pricing: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading("=== LiteLLM Pricing Sync ==="))
	fmt.Fprintf(out, "Feed entries:  %d\n", res.Fetched)
	fmt.Fprintf(out, "Catalog:       %d providers, %d models\n", res.Pricing.Providers.Len(), res.Pricing.ModelCount())
	fmt.Fprintf(out, "Changes:       %d\n", len(res.Changes))

	if len(res.Changes) > 0 {
		shown := res.Changes
		if !verbose && len(shown) > 20 {
			shown = shown[:20]
		}
		fmt.Fprintln(out)
		for _, c := range shown {
			fmt.Fprintf(out, "  %s\n", colorChange(c))
		}
		if rest := len(res.Changes) - len(shown); rest > 0 {
			fmt.Fprintf(out, "  ... and %d more (use --verbose)\n", rest)
		}
	}

	fmt.Fprintln(out)
	switch {
	case res.Applied:
		fmt.Fprintln(out, success("Wrote %s", path))
	case len(res.Changes) == 0:
		fmt.Fprintln(out, success("Catalog is up to date"))
	default:
		fmt.Fprintln(out, warning("Dry run, re-run with --apply to write %s", path))
	}
	return nil
}

func colorChange(c string) string {
	switch {
	case strings.HasPrefix(c, "+"):
		return success("%s", c)
	case strings.HasPrefix(c, "-"):
		return failure("%s", c)
	default:
		return c
	}
}

func runPricingCalc(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetInt64("input")
	output, _ := cmd.Flags().GetInt64("output")
	model, _ := cmd.Flags().GetString("model")
	top, _ := cmd.Flags().GetInt("top")

	p, err := initCatalog(cfg).Pricing()
	if err != nil {
		return err
	}
	calc, err := pricing.NewCalculator().Calculate(p, pricing.Request{
		InputTokens:   input,
		OutputTokens:  output,
		SelectedModel: model,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading("=== Monthly Cost Estimate ==="))
	fmt.Fprintf(out, "Input tokens:  %d\n", input)
	fmt.Fprintf(out, "Output tokens: %d\n", output)
	fmt.Fprintf(out, "Pricing as of: %s\n\n", calc.PricingLastUpdated)

	results := calc.Results
	if top > 0 && top < len(results) {
		results = results[:top]
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  MODEL\tPROVIDER\tINPUT\tOUTPUT\tMONTHLY\n")
	for _, r := range results {
		name := r.Key()
		if r.IsSelected {
			name = bold("%s *", name)
		}
		fmt.Fprintf(w, "  %s\t%s\t$%.2f\t$%.2f\t$%.2f\n", name, r.ProviderName, r.InputCost, r.OutputCost, r.MonthlyCost)
	}
	w.Flush()

	s := calc.Savings
	fmt.Fprintln(out)
	if model != "" && !calc.SelectedFound() {
		fmt.Fprintln(out, warning("Model %q not found in the catalog", model))
	}
	if s.HasSavings {
		fmt.Fprintln(out, success("Switching to %s saves $%.2f/month ($%.2f/year, %.1f%%)",
			s.CheapestModelName, s.MonthlySavings, s.AnnualSavings, s.SavingsPercentage))
	}
	return nil
}

func runPricingTokens(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	provider, name := tokenizer.SplitModelKey(model)
	count, err := tokenizer.CountTokens(args[0], provider, name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tokens:   %d\n", count.Tokens)
	fmt.Fprintf(out, "Method:   %s\n", count.Method)
	if count.Encoding != "" {
		fmt.Fprintf(out, "Encoding: %s\n", count.Encoding)
	}
	return nil
}
