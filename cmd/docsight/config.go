package main

import (
	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsight/internal/app"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// memoryConfig keeps everything in process for --ephemeral runs.
func memoryConfig() driven.ConfigStore {
	return memory.NewConfigStore(map[string]any{
		app.KeyStorageBackend: app.BackendMemory,
		app.KeyIndexBackend:   app.BackendMemory,
	})
}
