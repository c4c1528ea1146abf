package main

import (
	"github.com/aretw0/apc/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the engine over HTTP: stateless /step and /detect, server-side
sessions under /sessions with an SSE stream per session, /graph and /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		watch, _ := cmd.Flags().GetBool("watch")
		return cli.RunServe(cmd.Context(), cli.ServeOptions{
			Options: globalOptions(cmd),
			Addr:    addr,
			Watch:   watch,
			Out:     cmd.OutOrStdout(),
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP Server so assistants can call it as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		return cli.RunMCP(cmd.Context(), cli.MCPOptions{
			Options:   globalOptions(cmd),
			Transport: transport,
			Addr:      addr,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)

	serveCmd.Flags().String("addr", "", "Address to listen on (default server.addr, :8080)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the engine when the config file changes")

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE)")
}
