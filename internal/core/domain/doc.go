// Package domain holds docsight's entities and the rules that need no
// infrastructure: projects, documents and their processing state, chunks,
// key points, chat messages and search hits, plus the sentinel errors the
// rest of the code wraps.
//
// It imports nothing outside the standard library, and every other
// internal package may import it.
package domain
