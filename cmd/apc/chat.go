package main

import (
	"github.com/aretw0/apc/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive conversation",
	Long: `Reads one line per turn. Reply tokens (ds, branch <scope>, a, p, c, back,
yes, no, exit, phase done, done, merge, m1, m2, m3, cancel, checkpoint <artifact>)
drive the mode machine directly; anything else is scanned for rethink and
iteration signals. /track <id> and /topic <id> set the active track and topic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")

		return cli.RunChat(cmd.Context(), cli.ChatOptions{
			Options:   globalOptions(cmd),
			SessionID: sessionID,
			Fresh:     fresh,
			JSON:      jsonMode,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session to resume (default: a new random id)")
	chatCmd.Flags().Bool("fresh", false, "Discard the session's stored context first")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
