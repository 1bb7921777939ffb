// Package tui provides an interactive terminal user interface for one
// docsight project: its conversation, key points, documents and search.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Chat answers questions about the project. Required.
	Chat driving.ChatService

	// KeyPoints lists extracted key points. Required.
	KeyPoints driving.KeyPointService

	// Documents lists and shows project documents. Optional.
	Documents driving.DocumentService

	// Search finds passages by similarity. Optional.
	Search driving.SearchService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.KeyPoints == nil {
		return ErrMissingKeyPointService
	}
	return nil
}
