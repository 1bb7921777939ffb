// Package driven lists what the core services need from the outside world.
// Adapters under internal/adapters/driven implement these interfaces; the
// services only ever see the interfaces.
//
// Storage, the vector index, the normaliser registry, embeddings, the LLM
// and configuration must be supplied. The entity recogniser, token
// counter, embedding cache, metrics and prompt store are optional and a
// nil value turns the feature off.
//
// Only the domain package may be imported from here.
package driven
