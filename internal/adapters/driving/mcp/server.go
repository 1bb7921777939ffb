package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsight/internal/logger"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

const instructions = `docsight answers questions about the documents of a project.
Call list_projects first, then ask with the project name. Answers cite their
sources as [n]. Use search for raw passages and list_keypoints for the
facts extracted from each document.`

// Server exposes docsight over the Model Context Protocol.
type Server struct {
	ports *Ports
	inner *mcp.Server
}

// NewServer registers the tools and resources the ports allow.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		inner: mcp.NewServer(
			&mcp.Implementation{Name: "docsight", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	logger.Debug("mcp: server ready")
	return s, nil
}

// Run serves JSON-RPC over stdin/stdout until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.inner.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport. Every session shares the
// same server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.inner }, nil)
}
