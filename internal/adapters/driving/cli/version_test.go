package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := version
	SetVersion(v)
	t.Cleanup(func() { version = old })
}

func TestVersionCmd_Full(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	withVersion(t, "1.4.0")

	out, err := executeCommand("version")

	require.NoError(t, err)
	assert.Contains(t, out, "docsight version 1.4.0")
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	withVersion(t, "dev")

	out, err := executeCommand("version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("version", "extra")

	assert.Error(t, err)
}
