package main

import (
	"github.com/aretw0/apc/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the mode machine as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) of the conversation modes and their transitions.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		return cli.Graph(cmd.Context(), globalOptions(cmd), sessionID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the mode of this session")
}
