package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_HomeFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(HomeEnv, tmpDir)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestHomeDir_Default(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := HomeDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docsight"), dir)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("chat.top_k", 7))
	require.NoError(t, store.Set("chat.history_turns", "4"))
	require.NoError(t, store.Set("extract.ner", true))
	require.NoError(t, store.Set("extract.llm", "false"))
	require.NoError(t, store.Set("ingest.extensions", []string{".pdf", ".txt"}))
	require.NoError(t, store.Set("watch.ignore", "*.tmp, ~*"))

	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, "", store.GetString("chat.top_k"))
	assert.Equal(t, 7, store.GetInt("chat.top_k"))
	assert.Equal(t, 4, store.GetInt("chat.history_turns"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.True(t, store.GetBool("extract.ner"))
	assert.False(t, store.GetBool("extract.llm"))
	assert.Equal(t, []string{".pdf", ".txt"}, store.GetStringSlice("ingest.extensions"))
	assert.Equal(t, []string{"*.tmp", "~*"}, store.GetStringSlice("watch.ignore"))
	assert.Nil(t, store.GetStringSlice("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_WritesTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("chat.top_k", 5))
	require.NoError(t, store.Set("chat.history_turns", 6))
	require.NoError(t, store.Set("server.addr", ":8080"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[chat]")
	assert.Contains(t, string(data), "top_k = 5")
	assert.Contains(t, string(data), "[server]")
}

func TestConfigStore_SaveReload_PreservesData(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.dimensions", 768))
	require.NoError(t, store.Set("verbose", true))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("embedding.provider"))
	assert.Equal(t, 768, reopened.GetInt("embedding.dimensions"))
	assert.True(t, reopened.GetBool("verbose"))
	assert.Equal(t, []string{"embedding.dimensions", "embedding.provider", "verbose"}, reopened.Keys())
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[llm]
provider = "anthropic"
model = "claude-3-5-haiku-latest"

[chat]
top_k = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, 3, store.GetInt("chat.top_k"))
}

func TestConfigStore_ValueAndTablePrefixCoexist(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("index", "sqlite"))
	require.NoError(t, store.Set("index.dimensions", 384))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", reopened.GetString("index"))
	assert.Equal(t, 384, reopened.GetInt("index.dimensions"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("chat.top_k", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("chat.top_k")
		}()
	}
	wg.Wait()
}
