package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/client"
)

var injectCmd = &cobra.Command{
	Use:   "inject <tabId>",
	Short: "Force style re-injection for one tab",
	Long: `Asks the daemon to resolve and re-apply the visited-link style
sheet for the given tab. Useful when a page swallowed the injected
style element.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.New(apiBaseURL()).InjectCSS(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(injectCmd)
}
