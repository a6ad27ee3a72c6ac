// Package config loads and validates Passage configuration.
//
// Configuration is resolved in order of increasing priority:
//  1. Built-in defaults
//  2. passage.yaml in the working directory
//  3. PASSAGE_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	apperr "github.com/passagekit/passage/internal/errors"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = "passage.yaml"

// Defaults mirror the deployment the engine was tuned on.
const (
	DefaultChunkSize    = 512 // characters per chunk
	DefaultChunkOverlap = 50  // characters of overlap between chunks
	DefaultTopK         = 5
	DefaultMaxTopK      = 100
	DefaultAlpha        = 0.5 // balanced vector/keyword blend
	DefaultDimensions   = 384 // all-minilm embedding dimension
	DefaultBatchSize    = 32
	DefaultCacheSize    = 1000
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultEmbedModel   = "all-minilm"
)

// Config is the complete Passage configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PathsConfig configures where documents are read from and index data lives.
type PathsConfig struct {
	// DataDir holds the index files (keyword index, vectors, metadata).
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// DocsDir is the document corpus root for ingestion.
	DocsDir string `yaml:"docs_dir" json:"docs_dir"`
}

// ChunkingConfig configures the document splitter.
type ChunkingConfig struct {
	// Size is the chunk window length in characters.
	Size int `yaml:"size" json:"size"`
	// Overlap is the number of characters shared between adjacent chunks.
	// Must be strictly less than Size or the splitter cannot advance.
	Overlap int `yaml:"overlap" json:"overlap"`
}

// SearchConfig configures retrieval.
//
// The RRF smoothing constant is deliberately not configurable: fusion
// must be deterministic across deployments (see search.RRFConstant).
type SearchConfig struct {
	// Alpha is the hybrid blend weight in [0,1].
	// 0 = pure keyword, 1 = pure vector, 0.5 = balanced.
	Alpha float64 `yaml:"alpha" json:"alpha"`
	// TopK is the default number of results to return.
	TopK int `yaml:"top_k" json:"top_k"`
	// MaxTopK is the maximum allowed results per query.
	MaxTopK int `yaml:"max_top_k" json:"max_top_k"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" (default) or "static"
	// (offline hash-based fallback).
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	// CacheSize is the LRU query-embedding cache capacity.
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: ".passage",
			DocsDir: "docs",
		},
		Chunking: ChunkingConfig{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Search: SearchConfig{
			Alpha:   DefaultAlpha,
			TopK:    DefaultTopK,
			MaxTopK: DefaultMaxTopK,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      DefaultEmbedModel,
			Dimensions: DefaultDimensions,
			BatchSize:  DefaultBatchSize,
			CacheSize:  DefaultCacheSize,
			OllamaHost: DefaultOllamaHost,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration for the given project root.
// A missing passage.yaml is not an error; defaults are used.
func Load(root string) (*Config, error) {
	cfg := New()

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults + env only
	case err != nil:
		return nil, apperr.New(apperr.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read %s", path), err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.New(apperr.ErrCodeConfigInvalid,
				fmt.Sprintf("cannot parse %s", path), err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to passage.yaml under root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperr.New(apperr.ErrCodeInternal, "cannot marshal config", err)
	}
	path := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.New(apperr.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot write %s", path), err)
	}
	return nil
}

// applyEnv overrides config fields from PASSAGE_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PASSAGE_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("PASSAGE_DOCS_DIR"); v != "" {
		c.Paths.DocsDir = v
	}
	if v, ok := envInt("PASSAGE_CHUNK_SIZE"); ok {
		c.Chunking.Size = v
	}
	if v, ok := envInt("PASSAGE_CHUNK_OVERLAP"); ok {
		c.Chunking.Overlap = v
	}
	if v, ok := envFloat("PASSAGE_ALPHA"); ok {
		c.Search.Alpha = v
	}
	if v, ok := envInt("PASSAGE_TOP_K"); ok {
		c.Search.TopK = v
	}
	if v := os.Getenv("PASSAGE_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("PASSAGE_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("PASSAGE_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("PASSAGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate checks configuration invariants.
// Chunking parameters are validated here so the splitter itself can
// assume forward progress (overlap < size).
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return apperr.New(apperr.ErrCodeChunkParams,
			fmt.Sprintf("chunk size must be positive, got %d", c.Chunking.Size), nil)
	}
	if c.Chunking.Overlap < 0 {
		return apperr.New(apperr.ErrCodeChunkParams,
			fmt.Sprintf("chunk overlap must be non-negative, got %d", c.Chunking.Overlap), nil)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return apperr.New(apperr.ErrCodeChunkParams,
			fmt.Sprintf("chunk overlap %d must be smaller than chunk size %d",
				c.Chunking.Overlap, c.Chunking.Size), nil)
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return apperr.ConfigError(
			fmt.Sprintf("search alpha must be in [0,1], got %g", c.Search.Alpha), nil)
	}
	if c.Search.TopK <= 0 {
		return apperr.ConfigError(
			fmt.Sprintf("search top_k must be positive, got %d", c.Search.TopK), nil)
	}
	if c.Search.MaxTopK < c.Search.TopK {
		return apperr.ConfigError(
			fmt.Sprintf("search max_top_k %d must be >= top_k %d",
				c.Search.MaxTopK, c.Search.TopK), nil)
	}
	if c.Embeddings.Dimensions <= 0 {
		return apperr.ConfigError(
			fmt.Sprintf("embedding dimensions must be positive, got %d",
				c.Embeddings.Dimensions), nil)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return apperr.ConfigError(
			fmt.Sprintf("unknown embeddings provider %q (want ollama or static)",
				c.Embeddings.Provider), nil)
	}
	return nil
}

// DataPath returns a path inside the data directory.
func (c *Config) DataPath(elem ...string) string {
	parts := append([]string{c.Paths.DataDir}, elem...)
	return filepath.Join(parts...)
}
