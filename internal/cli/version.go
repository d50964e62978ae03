package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "buzz version %s (api %s)\n", Version, server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
