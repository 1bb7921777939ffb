package domain

import "strconv"

// ChunkInput is one chunk handed to the index for a document.
type ChunkInput struct {
	// Ordinal is the position within the document.
	Ordinal int

	// Content is the chunk text.
	Content string

	// Embedding is the chunk vector.
	Embedding []float32
}

// SearchHit is a chunk matched by a similarity search.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's document.
	DocumentID string

	// Ordinal is the chunk's position within its document.
	Ordinal int

	// Content is the chunk text.
	Content string

	// Score is the cosine similarity to the query.
	Score float64
}

// ChunkID derives a stable chunk identifier so repeated upserts of the same
// document produce the same ids.
func ChunkID(documentID string, ordinal int) string {
	return documentID + "#" + strconv.Itoa(ordinal)
}
