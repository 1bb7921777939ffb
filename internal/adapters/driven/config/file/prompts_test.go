package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(HomeEnv, tmpDir)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultPrompts[driven.PromptChatSystem], prompt)

	for _, f := range []string{"summarise.txt", "chat_system.txt", "extract_keypoints.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`summarise.txt` must keep %d and %s")
}

func TestPromptStore_Load_UserEdit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("  Be brief.\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", prompt)

	// Existing files are not overwritten by the defaults.
	data, err := os.ReadFile(filepath.Join(dir, "chat_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "  Be brief.\n", string(data))
}

func TestPromptStore_Load_MissingPlaceholderFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summarise.txt"), []byte("Summarise: %s"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extract_keypoints.txt"), []byte("List facts in %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSummarise)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultPrompts[driven.PromptSummarise], prompt)

	prompt, err = store.Load(driven.PromptExtractKeyPoints)
	require.NoError(t, err)
	assert.Equal(t, "List facts in %s", prompt)
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptChatSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("Changed"), 0600))

	prompt, _ := store.Load(driven.PromptChatSystem)
	assert.NotEqual(t, "Changed", prompt)

	store.Reload()
	prompt, err = store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Changed", prompt)
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSummarise)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultPrompts[driven.PromptSummarise], prompt)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptExtractKeyPoints)
			assert.NoError(t, err)
			assert.NotEmpty(t, p)
		}()
	}
	wg.Wait()
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, hasPlaceholders("in %d chars: %s", []string{"%d", "%s"}))
	assert.False(t, hasPlaceholders("%s then %d", []string{"%d", "%s"}))
	assert.True(t, hasPlaceholders("anything", nil))
}
