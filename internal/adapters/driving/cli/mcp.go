package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpFlags sessionFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve <document>",
	Short: "Serve a document over MCP",
	Long: `Indexes the document and starts a Model Context Protocol server that
answers questions about it.

The server offers an "ask" tool, a "reset_history" tool, and resources for
the conversation (docqa://history) and the document chunks (docqa://chunks).

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  docqa mcp serve handbook.pdf

  # HTTP mode (for MCP Inspector, remote access)
  docqa mcp serve handbook.pdf --port 8080`,
	Args: exactArgs(1),
	RunE: runMCPServe,
}

func init() {
	addSessionFlags(mcpServeCmd, &mcpFlags)
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	opts, err := mcpFlags.openOptions(cmd, settings)
	if err != nil {
		return err
	}

	c, err := core()
	if err != nil {
		return err
	}
	session, err := c.Sessions.Open(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Answer:      session.Answer,
		DocumentURI: session.Info.DocumentURI,
		DefaultK:    mcpFlags.k(cmd, settings),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
