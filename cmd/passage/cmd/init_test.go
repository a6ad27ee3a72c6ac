package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passagekit/passage/internal/config"
)

func runInTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return tmpDir
}

func TestInitCmd_CreatesConfigAndDirs(t *testing.T) {
	tmpDir := runInTempDir(t)

	var stdout bytes.Buffer
	cmd := newInitCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(tmpDir, config.ConfigFileName))
	cfg := config.New()
	assert.DirExists(t, filepath.Join(tmpDir, cfg.Paths.DataDir))
	assert.DirExists(t, filepath.Join(tmpDir, cfg.Paths.DocsDir))
	assert.Contains(t, stdout.String(), config.ConfigFileName)
}

func TestInitCmd_RefusesOverwriteWithoutForce(t *testing.T) {
	tmpDir := runInTempDir(t)

	cfgPath := filepath.Join(tmpDir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("search:\n  top_k: 9\n"), 0o644))

	var stdout bytes.Buffer
	cmd := newInitCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "top_k: 9", "existing config must be untouched")
	assert.Contains(t, stdout.String(), "already exists")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	tmpDir := runInTempDir(t)

	cfgPath := filepath.Join(tmpDir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("search:\n  top_k: 9\n"), 0o644))

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--force"})

	require.NoError(t, cmd.Execute())

	loaded, err := config.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, config.New().Search.TopK, loaded.Search.TopK)
}
