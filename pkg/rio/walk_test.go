package rio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestListFilesSingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.root")
	touch(t, file)

	// A direct file path bypasses the extension filter.
	paths, err := ListFiles(file, ".root")
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)
}

func TestListFilesDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.root"))
	touch(t, filepath.Join(dir, "a.root"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "c.ROOT"))

	paths, err := ListFiles(dir, ".root")
	require.NoError(t, err)

	// Sorted, recursive, extension matched case-insensitively.
	assert.Equal(t, []string{
		filepath.Join(dir, "a.root"),
		filepath.Join(dir, "b.root"),
		filepath.Join(dir, "sub", "c.ROOT"),
	}, paths)
}

func TestListFilesMissingPath(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"), ".root")
	require.Error(t, err)
}

func TestListFilesEmptyDirectory(t *testing.T) {
	paths, err := ListFiles(t.TempDir(), ".root")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestOpenUnregisteredPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "unknown.root"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reader registered")
}
