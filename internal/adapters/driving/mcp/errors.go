// Package mcp serves docsight projects to AI assistants over the Model
// Context Protocol.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("mcp: chat service is required")

	// ErrUnknownProject is returned when a project reference matches nothing.
	ErrUnknownProject = errors.New("mcp: unknown project")
)
