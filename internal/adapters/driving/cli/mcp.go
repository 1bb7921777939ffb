package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve projects to MCP clients",
	Long: `Lets AI assistants list projects, documents and key points, search
passages and ask cited questions.

JSON-RPC runs over stdin/stdout unless --port is given, in which case the
streamable HTTP transport listens on 127.0.0.1:<port>.

Client configuration:
  {"mcpServers": {"docsight": {"command": "docsight", "args": ["mcp", "serve"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Chat:      chatService,
		Projects:  projectService,
		Documents: documentService,
		KeyPoints: keyPointService,
	})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(mcpPort)))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", mcpPort, err)
	}
	cmd.PrintErrf("MCP server listening on http://%s\n", ln.Addr())
	return serveHTTP(cmd.Context(), ln, server.Handler())
}
