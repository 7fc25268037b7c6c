package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/client"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := client.New(apiBaseURL()).Ping(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("pong")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
