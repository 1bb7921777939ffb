// Command docsight groups documents into projects, extracts their key
// points and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsight/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsight/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsight/internal/app"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	cli.SetVersion(version)
	cli.SetEnvironment(&cli.Environment{
		Config:  openConfig,
		Backend: openBackend,
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func openConfig(ephemeral bool) (driven.ConfigStore, error) {
	if ephemeral {
		return memoryConfig(), nil
	}
	return file.NewConfigStore("")
}

func openBackend(ctx context.Context, cfg driven.ConfigStore, ephemeral bool) (*cli.Backend, error) {
	home, err := file.HomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating docsight home: %w", err)
	}

	var prompts driven.PromptStore
	if !ephemeral {
		store, err := file.NewPromptStore("")
		if err != nil {
			logger.Warn("prompts: %v, using built-in defaults", err)
		} else {
			prompts = store
		}
	}

	a, err := app.New(ctx, app.LoadSettings(cfg, home), prompts)
	if err != nil {
		return nil, err
	}

	return &cli.Backend{
		Projects:       a.Projects,
		Documents:      a.Documents,
		KeyPoints:      a.KeyPoints,
		Chat:           a.Chat,
		Search:         a.Search,
		Handler:        a.Handler(),
		Reindex:        a.Reindex,
		CheckProviders: a.CheckProviders,
		Wait:           a.Wait,
		Close:          a.Close,
		Warnings:       a.Warnings,
	}, nil
}
