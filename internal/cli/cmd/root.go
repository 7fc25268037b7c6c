// Package cmd provides Cobra CLI commands for linktint.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/config"
	"github.com/bnema/linktint/internal/logging"
)

var (
	cfgManager *config.Manager
	rootLogger zerolog.Logger
	apiAddr    string

	rootCmd = &cobra.Command{
		Use:   "linktint",
		Short: "Recolor visited links in your browser, per site",
		Long: `Linktint attaches to a Chromium-family browser over the DevTools
protocol and recolors previously visited hyperlinks on every page,
with a global color and per-site overrides.

Run 'linktint serve' to start the daemon, then 'linktint popup' to
open the settings panel for the active tab.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			cfgManager, err = config.NewManager()
			if err != nil {
				return fmt.Errorf("initialize config: %w", err)
			}

			logCfg := logging.DefaultConfig()
			cfg := cfgManager.Get()
			if level, perr := logging.ParseLevel(cfg.Logging.Level); perr == nil {
				logCfg.Level = level
			}
			if cfg.Logging.Format == "json" || cfg.Logging.Format == "console" {
				logCfg.Format = cfg.Logging.Format
			}
			rootLogger = logging.New(logCfg)

			if apiAddr == "" {
				apiAddr = cfg.Server.Listen
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "daemon message API address (default from config)")
}

// SetVersionInfo wires build-time version metadata into the CLI.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// apiBaseURL renders the client base URL from the configured address.
func apiBaseURL() string {
	return "http://" + apiAddr
}
