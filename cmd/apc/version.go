package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/apc"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of apc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apc version %s\n", strings.TrimSpace(apc.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
