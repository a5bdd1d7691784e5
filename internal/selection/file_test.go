package selection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdeck/teamdeck/internal/selection"
)

func TestFile_GetMissingFile(t *testing.T) {
	store := selection.NewFile(filepath.Join(t.TempDir(), "current_team"))

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestFile_PutThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teamdeck", "current_team")
	store := selection.NewFile(path)

	require.NoError(t, store.Put("team-123"))

	value, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "team-123", value)
}

func TestFile_PutOverwrites(t *testing.T) {
	store := selection.NewFile(filepath.Join(t.TempDir(), "current_team"))

	require.NoError(t, store.Put("first"))
	require.NoError(t, store.Put("second"))

	value, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestFile_EmptyFileMeansNoValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_team")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	store := selection.NewFile(path)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestFile_SurvivesNewStoreInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_team")

	require.NoError(t, selection.NewFile(path).Put("persisted"))

	value, ok := selection.NewFile(path).Get()
	require.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestMemory_EmptyThenPut(t *testing.T) {
	store := selection.NewMemory()

	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, store.Put("value"))
	value, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "value", value)
}
