// Package sqlite stores docsight state in a single SQLite file using the
// pure Go modernc.org/sqlite driver.
//
// Store keeps projects, documents with their original bytes, key points and
// chat history. Index keeps chunk embeddings and answers nearest-neighbour
// queries by scanning a project's vectors.
//
// The schema is built from the numbered files in migrations/, applied in
// order on open. The default location is ~/.docsight/data/docsight.db.
package sqlite
