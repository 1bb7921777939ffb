// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the project conversation.
	ViewChat
	// ViewKeyPoints lists the project's key points.
	ViewKeyPoints
	// ViewDocuments lists the project's documents.
	ViewDocuments
	// ViewDocContent shows the normalised text of a document.
	ViewDocContent
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewKeyPoints:
		return "keypoints"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// HistoryLoaded carries the conversation so far. When it is empty the
// welcome message is sent instead.
type HistoryLoaded struct {
	Messages []domain.ChatMessage
	Err      error
}

// AnswerReceived carries the assistant's reply to a question.
type AnswerReceived struct {
	Message *domain.ChatMessage
	Err     error
}

// HistoryCleared signals the conversation was removed.
type HistoryCleared struct {
	Err error
}

// KeyPointsLoaded carries a filtered key point listing and per-type counts.
type KeyPointsLoaded struct {
	KeyPoints []domain.KeyPoint
	Stats     domain.KeyPointStats
	Err       error
}

// DocumentsLoaded carries the documents of the project.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentContentLoaded carries the content of a document.
type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// DocumentReprocessed signals a document was queued again.
type DocumentReprocessed struct {
	DocumentID string
	Err        error
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []driving.SearchResult
	Err     error
}
