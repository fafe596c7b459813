package cmd

import (
	"fmt"

	"github.com/killallgit/compass/pkg/config"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backend health and session statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(config.Get())

		health, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend unreachable at %s: %w", client.BaseURL(), err)
		}
		stats, err := client.SessionStats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend:         %s (%s)\n", client.BaseURL(), health.Status)
		fmt.Fprintf(out, "Active sessions: %d\n", stats.ActiveSessions)
		fmt.Fprintf(out, "Total messages:  %d\n", stats.TotalMessages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
