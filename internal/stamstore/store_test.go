package stamstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/no/such/file.json")
	assert.Error(t, err, "expected an error loading a missing file")
}

func TestNewStoreIsEmptyAndNotChanged(t *testing.T) {
	s := New()
	assert.False(t, s.Changed(), "a freshly created store should not be dirty")
	assert.Empty(t, s.Resources())
	assert.Empty(t, s.Annotations())
}

func TestAddResourceMarksDirtyAndWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.SetFilename(filepath.Join(dir, "a.store.stam.json"))
	textPath := filepath.Join(dir, "r1.txt")
	require.NoError(t, s.AddResource("r1", "hello world", textPath))
	assert.True(t, s.Changed(), "AddResource should mark the store dirty")
	assert.FileExists(t, textPath, "AddResource should write the sidecar text file")
	assert.Error(t, s.AddResource("r1", "again", textPath), "expected an error adding a duplicate resource id")
}

func TestSaveClearsDirtyAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.store.stam.json")
	s := New()
	s.SetFilename(path)
	require.NoError(t, s.AddResource("r1", "hello", filepath.Join(dir, "r1.txt")))
	require.NoError(t, s.Save())
	assert.False(t, s.Changed(), "Save should clear the dirty flag")

	reloaded, err := Load(path)
	require.NoError(t, err)
	r, ok := reloaded.Resource("r1")
	require.True(t, ok)
	assert.Equal(t, "hello", r.Text)
}
