package main

import (
	"strings"

	"github.com/aretw0/apc/internal/cli"
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:   "step <event>",
	Short: "Dispatch a single event and print the result",
	Long: `Dispatches one event, given as an event type (CMD_DS) or a JSON record
({"type":"USER_ACCEPT","payload":{"complexity_score":8}}), against --context
or a stored --session, and prints the transition result with the applied context.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		rawContext, _ := cmd.Flags().GetString("context")
		return cli.Step(cmd.Context(), globalOptions(cmd), sessionID, rawContext, args[0], cmd.OutOrStdout())
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <text>...",
	Short: "Scan text for rethink and iteration signals",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawContext, _ := cmd.Flags().GetString("context")
		return cli.Detect(cmd.Context(), globalOptions(cmd), rawContext, strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(detectCmd)

	stepCmd.Flags().String("context", "", "Conversation context as JSON (default: a new context)")
	stepCmd.Flags().StringP("session", "s", "", "Apply to a stored session instead of --context")
	detectCmd.Flags().String("context", "", "Conversation context as JSON (default: a new context)")
}
