package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
	"github.com/ogulcanaydogan/ai-buzz-tools/internal/publish"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/content"
)

var wpCmd = &cobra.Command{
	Use:   "wp",
	Short: "Sync tool pages and guides with WordPress",
}

var wpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages on the site",
	RunE:  runWPList,
}

var wpPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download a page into the pull directory",
	RunE:  runWPPull,
}

var wpPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Create or update a page from a local file",
	RunE:  runWPPush,
}

var wpPushAllCmd = &cobra.Command{
	Use:   "push-all",
	Short: "Push every page in the pages directory",
	RunE:  runWPPushAll,
}

var wpPushPostCmd = &cobra.Command{
	Use:   "push-post",
	Short: "Create or update a post from a local file",
	RunE:  runWPPushPost,
}

var wpPushGuidesCmd = &cobra.Command{
	Use:   "push-guides",
	Short: "Push every guide as a post in the " + publish.GuidesCategory + " category",
	RunE:  runWPPushGuides,
}

var wpDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a local page with the live one",
	RunE:  runWPDiff,
}

var wpValidateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check content files before publishing",
	RunE:  runWPValidate,
}

var wpConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Render a Markdown file to HTML",
	RunE:  runWPConvert,
}

var wpSetupCategoryCmd = &cobra.Command{
	Use:   "setup-category",
	Short: "Create the " + publish.DeveloperTools.Name + " category and file the guides under it",
	RunE:  runWPSetupCategory,
}

func init() {
	rootCmd.AddCommand(wpCmd)
	wpCmd.AddCommand(wpListCmd, wpPullCmd, wpPushCmd, wpPushAllCmd, wpPushPostCmd,
		wpPushGuidesCmd, wpDiffCmd, wpValidateCmd, wpConvertCmd, wpSetupCategoryCmd)

	wpPullCmd.Flags().StringP("slug", "s", "", "Page slug")
	wpPullCmd.Flags().Bool("markdown", false, "Convert the page to Markdown")
	_ = wpPullCmd.MarkFlagRequired("slug")

	wpPushCmd.Flags().StringP("file", "f", "", "Content file (.html or .md)")
	_ = wpPushCmd.MarkFlagRequired("file")
	wpPushPostCmd.Flags().StringP("file", "f", "", "Content file (.html or .md)")
	_ = wpPushPostCmd.MarkFlagRequired("file")

	wpDiffCmd.Flags().StringP("slug", "s", "", "Page slug")
	_ = wpDiffCmd.MarkFlagRequired("slug")

	wpConvertCmd.Flags().StringP("file", "f", "", "Markdown file")
	wpConvertCmd.Flags().StringP("output", "o", "", "Output file (default: same name with .html)")
	_ = wpConvertCmd.MarkFlagRequired("file")

	wpSetupCategoryCmd.Flags().Bool("dry-run", false, "Print the plan without changing the site")
	wpSetupCategoryCmd.Flags().StringSlice("cleanup-slug", []string{"ai-guides"}, "Empty categories to delete")
	wpSetupCategoryCmd.Flags().Bool("list-categories", false, "Only list the existing categories")
}

// initPublisher loads config and returns a publisher for the configured
// site, or an error when credentials are missing.
func initPublisher() (*config.Config, *publish.Publisher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	wp, err := initWordPress(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, publish.New(wp, logger), nil
}

func runWPList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	wp, err := initWordPress(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	pages, err := wp.ListPages(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pages on %s: %d\n\n", wp.SiteURL(), len(pages))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ID\tSLUG\tSTATUS\tMODIFIED\tTITLE\n")
	for _, p := range pages {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Status, p.Modified, p.Title.Value())
	}
	return w.Flush()
}

func runWPPull(cmd *cobra.Command, _ []string) error {
	cfg, pub, err := initPublisher()
	if err != nil {
		return err
	}
	slug, _ := cmd.Flags().GetString("slug")
	markdown, _ := cmd.Flags().GetBool("markdown")

	path, doc, err := pub.Pull(cmd.Context(), slug, cfg.Content.PullDir, markdown)
	if err != nil {
		return fmt.Errorf("pull %s: %w", slug, err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, success("Saved %s", path))
	fmt.Fprintf(out, "  Title:  %s\n", doc.Meta.Title)
	fmt.Fprintf(out, "  ID:     %d\n", doc.Meta.PageID)
	fmt.Fprintf(out, "  Status: %s\n", doc.Meta.Status)
	fmt.Fprintf(out, "  Length: %d chars\n", len(doc.Body))
	return nil
}

func printPushed(w io.Writer, r publish.PushResult) {
	fmt.Fprintln(w, success("%s %s %q (id %d)", r.Action(), r.Kind, r.Slug, r.ID))
	if r.SEOUpdated {
		fmt.Fprintln(w, "  SEO metadata updated")
	}
}

func runWPPush(cmd *cobra.Command, _ []string) error {
	_, pub, err := initPublisher()
	if err != nil {
		return err
	}
	file, _ := cmd.Flags().GetString("file")
	res, err := pub.PushPage(cmd.Context(), file)
	if err != nil {
		return fmt.Errorf("push %s: %w", file, err)
	}
	printPushed(cmd.OutOrStdout(), res)
	return nil
}

func runWPPushPost(cmd *cobra.Command, _ []string) error {
	_, pub, err := initPublisher()
	if err != nil {
		return err
	}
	file, _ := cmd.Flags().GetString("file")
	res, err := pub.PushPost(cmd.Context(), file, 0)
	if err != nil {
		return fmt.Errorf("push %s: %w", file, err)
	}
	printPushed(cmd.OutOrStdout(), res)
	return nil
}

func printBatch(w io.Writer, done []publish.PushResult, failed []publish.Failure) error {
	for _, r := range done {
		printPushed(w, r)
	}
	skipped := 0
	for _, f := range failed {
		if f.Skipped {
			skipped++
			fmt.Fprintln(w, warning("Skipped %s: %v", f.File, f.Err))
			continue
		}
		fmt.Fprintln(w, failure("Failed %s: %v", f.File, f.Err))
	}
	fmt.Fprintf(w, "\n%d pushed, %d skipped, %d failed\n", len(done), skipped, len(failed)-skipped)
	if len(failed)-skipped > 0 {
		return fmt.Errorf("%d files failed", len(failed)-skipped)
	}
	return nil
}

func runWPPushAll(cmd *cobra.Command, _ []string) error {
	cfg, pub, err := initPublisher()
	if err != nil {
		return err
	}
	done, failed, err := pub.PushAll(cmd.Context(), cfg.Content.PagesDir)
	if err != nil {
		return err
	}
	return printBatch(cmd.OutOrStdout(), done, failed)
}

func runWPPushGuides(cmd *cobra.Command, _ []string) error {
	cfg, pub, err := initPublisher()
	if err != nil {
		return err
	}
	done, failed, err := pub.PushGuides(cmd.Context(), cfg.Content.GuidesDir)
	if err != nil {
		return err
	}
	return printBatch(cmd.OutOrStdout(), done, failed)
}

func runWPDiff(cmd *cobra.Command, _ []string) error {
	cfg, pub, err := initPublisher()
	if err != nil {
		return err
	}
	slug, _ := cmd.Flags().GetString("slug")

	rep, err := pub.Diff(cmd.Context(), slug, cfg.Content.PagesDir, cfg.Content.PullDir)
	if err != nil {
		return fmt.Errorf("diff %s: %w", slug, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Local:  %s (%d chars)\n", rep.LocalPath, rep.LocalLen)
	fmt.Fprintf(out, "Remote: page %d, %s (%d chars)\n\n", rep.RemoteID, rep.RemoteState, rep.RemoteLen)
	if len(rep.Hunks) == 0 {
		fmt.Fprintln(out, success("No differences"))
		return nil
	}
	for _, h := range rep.Hunks {
		fmt.Fprintln(out, heading("@@ remote %d, local %d @@", h.FromLine, h.ToLine))
		for _, l := range h.Lines {
			line := string(l.Op) + l.Text
			switch l.Op {
			case content.DiffDelete:
				line = failure("%s", line)
			case content.DiffInsert:
				line = success("%s", line)
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

func runWPValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	files := args
	if len(files) == 0 {
		files, err = content.Discover(cfg.Content.PagesDir)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	invalid := 0
	for _, f := range files {
		doc, err := content.ReadFile(f)
		if err != nil {
			invalid++
			fmt.Fprintln(out, failure("%s: %v", f, err))
			continue
		}
		problems := content.Validate(doc)
		if len(problems) == 0 {
			fmt.Fprintln(out, success("%s: ok", f))
			continue
		}
		invalid++
		fmt.Fprintln(out, failure("%s:", f))
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	fmt.Fprintf(out, "\n%d files, %d with problems\n", len(files), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d files failed validation", invalid)
	}
	return nil
}

func runWPConvert(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = strings.TrimSuffix(file, filepath.Ext(file)) + ".html"
	}

	doc, err := content.ReadFile(file)
	if err != nil {
		return err
	}
	html, err := content.MarkdownToHTML(doc.Body)
	if err != nil {
		return fmt.Errorf("render %s: %w", file, err)
	}
	doc.Body = html
	if err := doc.WriteFile(output); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), success("Wrote %s", output))
	return nil
}

func runWPSetupCategory(cmd *cobra.Command, _ []string) error {
	_, pub, err := initPublisher()
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	cleanup, _ := cmd.Flags().GetStringSlice("cleanup-slug")
	listOnly, _ := cmd.Flags().GetBool("list-categories")
	out := cmd.OutOrStdout()

	if listOnly {
		cats, err := pub.Categories(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  ID\tSLUG\tPOSTS\tNAME\n")
		for _, c := range cats {
			fmt.Fprintf(w, "  %d\t%s\t%d\t%s\n", c.ID, c.Slug, c.Count, c.Name)
		}
		return w.Flush()
	}

	if dryRun {
		fmt.Fprintln(out, warning("Dry run, no changes will be made"))
	}
	setup, err := pub.SetupCategory(cmd.Context(), publish.DeveloperTools, cleanup, dryRun)
	if err != nil {
		return err
	}
	for _, s := range setup.Steps {
		line := fmt.Sprintf("%-10s %-14s %s", s.Outcome, s.Action, s.Target)
		switch s.Outcome {
		case publish.StepDone, publish.StepExists:
			line = success("%s", line)
		case publish.StepFailed:
			line = failure("%s: %v", line, s.Err)
		case publish.StepMissing, publish.StepNotEmpty:
			line = warning("%s", line)
		}
		fmt.Fprintln(out, line)
	}
	if setup.CategoryID > 0 {
		fmt.Fprintf(out, "\nCategory %q has id %d\n", publish.DeveloperTools.Slug, setup.CategoryID)
	}
	return nil
}
