package domain

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// SourceCitation points from an answer back to a chunk that was in the prompt.
type SourceCitation struct {
	// DocumentID is the cited document.
	DocumentID string

	// DocumentName is the cited document's file name.
	DocumentName string

	// ChunkID is the cited chunk.
	ChunkID string

	// Excerpt is a short quote from the chunk.
	Excerpt string

	// Confidence is the retrieval similarity of the chunk.
	Confidence float64
}

// ChatMessage is one message of a project conversation.
type ChatMessage struct {
	// ID is the unique identifier for the message.
	ID string

	// ProjectID scopes the conversation.
	ProjectID string

	// Role is user or assistant.
	Role ChatRole

	// Content is the message text.
	Content string

	// Sources lists citations for assistant messages.
	Sources []SourceCitation

	// CreatedAt orders messages within a conversation.
	CreatedAt time.Time
}

// TurnState is the stage of a chat turn.
type TurnState string

// Chat turn states, in order. Failed may follow any of them.
const (
	TurnReceived   TurnState = "received"
	TurnEmbedding  TurnState = "embedding"
	TurnRetrieving TurnState = "retrieving"
	TurnGenerating TurnState = "generating"
	TurnAnswered   TurnState = "answered"
	TurnFailed     TurnState = "failed"
)

// Answer is the responder's output for one turn.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are citations for chunks that were placed in the prompt.
	Sources []SourceCitation

	// State is the terminal turn state.
	State TurnState

	// Grounded is false when no context was available.
	Grounded bool
}
