package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest,
search, list and delete job postings.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over HTTP instead. Prompt templates in ~/.jobmatch/prompts are
reloaded on change while the server runs.

Examples:
  # Stdio mode (default)
  jobmatch mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  jobmatch mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "jobmatch": {
        "command": "/path/to/jobmatch",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:  searchService,
		Ingest:  ingestService,
		Delete:  deletionService,
		Records: recordService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		if len(startupWarnings) > 0 {
			return fmt.Errorf("%w (%s)", err, joinOr(startupWarnings, ""))
		}
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if promptWatcher != nil {
		go promptWatcher.Run(ctx)
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
