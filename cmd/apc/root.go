package main

import (
	"fmt"
	"os"

	"github.com/aretw0/apc/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apc",
	Short: "apc decides when a conversation needs a design session",
	Long: `apc tracks a conversation turn by turn and decides when to offer a design
checkpoint, nudge towards a structured design session, or fork a design branch
from an active track. Replies are A (advanced), P (party) and C (continue).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory holding .apc/")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <dir>/.apc/config.yaml)")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a config key, e.g. --set cooldowns.micro=5")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine transitions to stderr")
}

// globalOptions reads the persistent flags.
func globalOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	configPath, _ := cmd.Flags().GetString("config")
	overrides, _ := cmd.Flags().GetStringArray("set")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{
		Dir:        dir,
		ConfigPath: configPath,
		Overrides:  overrides,
		Debug:      debug,
	}
}
