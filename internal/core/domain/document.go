package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceType classifies an uploaded file by its origin format.
type SourceType string

// Source types.
const (
	SourceEmail    SourceType = "email"
	SourcePDF      SourceType = "pdf"
	SourceDocument SourceType = "document"
	SourceText     SourceType = "text"
	SourceUnknown  SourceType = "unknown"
)

var sourceTypeByExt = map[string]SourceType{
	"eml":  SourceEmail,
	"msg":  SourceEmail,
	"pdf":  SourcePDF,
	"docx": SourceDocument,
	"doc":  SourceDocument,
	"txt":  SourceText,
	"md":   SourceText,
}

// SourceTypeFromFilename maps a file name to its source type by extension.
func SourceTypeFromFilename(name string) SourceType {
	if t, ok := sourceTypeByExt[Extension(name)]; ok {
		return t
	}
	return SourceUnknown
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// DocumentStatus is the processing state of a document.
type DocumentStatus string

// Document statuses.
const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

// IsTerminal returns true once processing has finished either way.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Document represents an uploaded file and its processing state.
// Key points and chunks are owned by the document but stored separately.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// ProjectID links to the owning Project.
	ProjectID string

	// Name is the original file name.
	Name string

	// SourceType is derived from the file extension.
	SourceType SourceType

	// Size is the byte size of the uploaded file.
	Size int64

	// Status is the processing status.
	Status DocumentStatus

	// Summary is a short description produced by the extractor.
	Summary string

	// Error holds the failure message when Status is error.
	Error string

	// UploadedAt is when the document was uploaded.
	UploadedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// ProjectID scopes the chunk for search.
	ProjectID string

	// Ordinal is the position within the document, starting at zero.
	Ordinal int

	// Content is the text span.
	Content string

	// Embedding is the vector representation.
	Embedding []float32
}
