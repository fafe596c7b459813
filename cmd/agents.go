package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/config"
	"github.com/killallgit/compass/pkg/tui/theme"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents you can chat with",
	RunE: func(cmd *cobra.Command, args []string) error {
		styles, _ := outputStyles(cmd.OutOrStdout())
		return listAgents(cmd.OutOrStdout(), agents.NewRegistry(), config.Get().Chat.DefaultAgent, styles)
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func listAgents(w io.Writer, registry *agents.Registry, current string, styles *theme.Styles) error {
	for _, a := range registry.List() {
		marker := "  "
		if a.Kind == current {
			marker = "* "
		}
		mode := "request/response"
		if a.Streaming {
			mode = "streaming"
		}

		header := lipgloss.JoinHorizontal(lipgloss.Top,
			marker,
			styles.AgentLabel.Render(a.Name),
			" ",
			styles.Timestamp.Render(fmt.Sprintf("[%s · %s · %s]", a.Kind, a.Model, mode)),
		)
		if _, err := fmt.Fprintf(w, "%s\n    %s\n", header, styles.Body.Render(a.Description)); err != nil {
			return err
		}
	}
	return nil
}
