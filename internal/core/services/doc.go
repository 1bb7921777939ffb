// Package services implements the core application logic.
//
// The ingestion side is a pipeline: the Ingestor normalises uploaded bytes,
// the Extractor produces key points and a summary, and the Processor runs
// both with chunk embedding on a bounded worker pool. The query side is the
// Responder, a per-turn state machine over the vector index and the
// generation backend. The remaining services implement the driving ports
// used by the CLI, HTTP, MCP and TUI adapters.
package services
