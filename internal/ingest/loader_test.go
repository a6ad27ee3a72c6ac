package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("notes.txt"))
	assert.True(t, IsSupported("README.md"))
	assert.True(t, IsSupported("guide.MARKDOWN"))
	assert.False(t, IsSupported("image.png"))
	assert.False(t, IsSupported("binary"))
	assert.False(t, IsSupported("config.yaml"))
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "guide.md", "Some content.")

	doc, err := LoadDocument(path, filepath.Join("sub", "guide.md"))
	require.NoError(t, err)
	assert.Equal(t, "sub/guide.md", doc.Source)
	assert.Equal(t, "guide", doc.Title)
	assert.Equal(t, "Some content.", doc.Text)
	assert.False(t, doc.ModTime.IsZero())
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.md"), "nope.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_201")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "nested/b.txt", "beta")
	writeFile(t, dir, "skip.png", "not text")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	sources := []string{docs[0].Source, docs[1].Source}
	assert.Contains(t, sources, "a.md")
	assert.Contains(t, sources, "nested/b.txt")
}

func TestLoadDir_MissingRoot(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_201")
}
