package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/passagekit/passage/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.Chunking.Size)
	assert.Equal(t, DefaultChunkOverlap, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultAlpha, cfg.Search.Alpha)
	assert.Equal(t, DefaultTopK, cfg.Search.TopK)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, ".passage", cfg.Paths.DataDir)
}

func TestLoad_ReadsYAML(t *testing.T) {
	root := t.TempDir()
	content := `
chunking:
  size: 256
  overlap: 32
search:
  alpha: 0.7
  top_k: 8
embeddings:
  provider: static
`
	path := filepath.Join(root, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Chunking.Size)
	assert.Equal(t, 32, cfg.Chunking.Overlap)
	assert.InDelta(t, 0.7, cfg.Search.Alpha, 1e-9)
	assert.Equal(t, 8, cfg.Search.TopK)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	// Unset fields keep defaults.
	assert.Equal(t, DefaultMaxTopK, cfg.Search.MaxTopK)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("chunking: ["), 0o644))

	_, err := Load(root)

	assert.ErrorIs(t, err, apperr.New(apperr.ErrCodeConfigInvalid, "", nil))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PASSAGE_CHUNK_SIZE", "128")
	t.Setenv("PASSAGE_ALPHA", "0.25")
	t.Setenv("PASSAGE_EMBED_PROVIDER", "static")
	t.Setenv("PASSAGE_DATA_DIR", "/tmp/idx")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Chunking.Size)
	assert.InDelta(t, 0.25, cfg.Search.Alpha, 1e-9)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "/tmp/idx", cfg.Paths.DataDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
	}{
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, apperr.ErrCodeChunkParams},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, apperr.ErrCodeChunkParams},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, apperr.ErrCodeChunkParams},
		{"alpha above one", func(c *Config) { c.Search.Alpha = 1.5 }, apperr.ErrCodeConfigInvalid},
		{"alpha below zero", func(c *Config) { c.Search.Alpha = -0.1 }, apperr.ErrCodeConfigInvalid},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }, apperr.ErrCodeConfigInvalid},
		{"max_top_k below top_k", func(c *Config) { c.Search.MaxTopK = c.Search.TopK - 1 }, apperr.ErrCodeConfigInvalid},
		{"zero dimensions", func(c *Config) { c.Embeddings.Dimensions = 0 }, apperr.ErrCodeConfigInvalid},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }, apperr.ErrCodeConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, apperr.New(tt.wantCode, "", nil))
		})
	}

	assert.NoError(t, New().Validate())
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := New()
	cfg.Chunking.Size = 300
	cfg.Chunking.Overlap = 30
	require.NoError(t, cfg.Save(root))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 300, loaded.Chunking.Size)
	assert.Equal(t, 30, loaded.Chunking.Overlap)
}

func TestDataPath(t *testing.T) {
	cfg := New()
	cfg.Paths.DataDir = "data"

	assert.Equal(t, filepath.Join("data", "metadata.db"), cfg.DataPath("metadata.db"))
}
