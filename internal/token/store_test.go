package token_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/token"
)

func TestStore_LoadMissingFile(t *testing.T) {
	store := token.NewStore(filepath.Join(t.TempDir(), "token"), "")
	assert.Empty(t, store.Load())
}

func TestStore_FallbackWhenFileEmpty(t *testing.T) {
	store := token.NewStore(filepath.Join(t.TempDir(), "token"), "static-token")
	assert.Equal(t, "static-token", store.Load())
}

func TestStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := token.NewStore(path, "fallback")

	require.NoError(t, store.Save("secret"))
	assert.Equal(t, "secret", store.Load())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	// Back to the static fallback once the stored token is gone.
	assert.Equal(t, "fallback", store.Load())
}

func TestStore_ClearMissingIsNoop(t *testing.T) {
	store := token.NewStore(filepath.Join(t.TempDir(), "token"), "")
	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Clear())
}

func TestStore_LoadTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  tok-123\n"), 0o600))

	store := token.NewStore(path, "")
	assert.Equal(t, "tok-123", store.Load())
}
