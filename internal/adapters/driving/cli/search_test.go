package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_ErrorsWithoutServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, err := executeCommand("search", "closing", "-p", "p-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSearchCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("search", "closing date", "-p", "Acme Deal")

	require.NoError(t, err)
	assert.Equal(t, "closing date", mocks.search.query)
	assert.Equal(t, 5, mocks.search.k)
	assert.Contains(t, out, "[1] contract.pdf (0.91)")
	assert.Contains(t, out, "    Closing takes place on 31 March.")
	assert.Contains(t, out, "[2] minutes.docx (0.74)")
}

func TestSearchCmd_Limit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("search", "closing", "-p", "p-1", "-n", "1")

	require.NoError(t, err)
	assert.Equal(t, 1, mocks.search.k)
	assert.NotContains(t, out, "minutes.docx")
}

func TestSearchCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("search", "closing", "-p", "p-1", "--json")

	require.NoError(t, err)
	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, "contract.pdf", results[0].DocumentName)
	assert.InDelta(t, 0.91, results[0].Score, 1e-9)
}

func TestSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.search.results = nil

	out, err := executeCommand("search", "weather", "-p", "p-1")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\tc", 10))
	assert.Equal(t, "héllo...", snippet("héllo world", 5))
}
