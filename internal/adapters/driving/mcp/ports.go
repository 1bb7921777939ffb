package mcp

import (
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Search retrieves chunks by similarity.
	Search driving.SearchService

	// Chat answers questions.
	Chat driving.ChatService

	// Projects resolves project names. Optional; without it tools take IDs only.
	Projects driving.ProjectService

	// Documents lists documents and their content. Optional.
	Documents driving.DocumentService

	// KeyPoints lists extracted key points. Optional.
	KeyPoints driving.KeyPointService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
