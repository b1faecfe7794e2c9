// Package config holds all refdrift configuration: input column aliases,
// scoring backend selection, embedding provider settings, severity bands,
// and logging switches. Configuration is an explicit object handed to
// constructors, never a process-wide singleton, so multiple scorer or engine
// instances can coexist.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"refdrift/internal/reconcile"
	"refdrift/internal/snapshot"
)

// Config holds all refdrift configuration.
type Config struct {
	// Input settings: how snapshots are read and keyed
	Input InputConfig `yaml:"input"`

	// Scoring strategy and its retry/timeout tuning
	Scoring ScoringConfig `yaml:"scoring"`

	// Embedding provider (semantic backend only)
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Severity bands per scoring backend
	Bands BandsConfig `yaml:"bands"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig configures snapshot loading and keying.
type InputConfig struct {
	// KeyAliases are the acceptable header spellings of the key column.
	KeyAliases []string `yaml:"key_aliases"`

	// FieldAliases are the acceptable header spellings of the compared
	// text column. The first alias that matches a header wins, per side.
	FieldAliases []string `yaml:"field_aliases"`

	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// Placeholders are cell values normalized to empty strings on load,
	// matched case-insensitively after trimming.
	Placeholders []string `yaml:"placeholders"`

	// DuplicatePolicy: "last-wins" or "strict".
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

// ScoringConfig configures the similarity scorer.
type ScoringConfig struct {
	Backend      string `yaml:"backend"` // semantic, lexical
	Workers      int    `yaml:"workers"`
	MaxRetries   int    `yaml:"max_retries"`
	RetryBackoff string `yaml:"retry_backoff"`
	MaxBackoff   string `yaml:"max_backoff"`
	CallTimeout  string `yaml:"call_timeout"`
}

// EmbeddingConfig configures the vector embedding engine.
// Supports GenAI (cloud) and Ollama (local) providers.
type EmbeddingConfig struct {
	// Provider: "genai" or "ollama"
	Provider string `yaml:"provider"`

	// GenAI configuration (Google cloud embedding)
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"` // Default: "text-embedding-004"

	// Ollama configuration (local embedding server)
	OllamaEndpoint string `yaml:"ollama_endpoint"` // Default: "http://localhost:11434"
	OllamaModel    string `yaml:"ollama_model"`    // Default: "embeddinggemma"

	RequestTimeout string `yaml:"request_timeout"`

	// Cache persists vectors across runs; quarterly snapshots repeat most
	// of their text, so the hit rate is high.
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig configures the embedding cache store.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BandsConfig carries one band set per scoring backend. Raw similarity
// magnitudes differ across backends, so the sets are never interchangeable.
type BandsConfig struct {
	Semantic reconcile.Bands `yaml:"semantic"`
	Lexical  reconcile.Bands `yaml:"lexical"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the category file logger. The logging package
// reads this same section from the config file directly.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			KeyAliases:      []string{"Code"},
			FieldAliases:    []string{"Code Notes", "MHI Code Notes"},
			Placeholders:    []string{"nan", "n/a"},
			DuplicatePolicy: string(snapshot.LastWins),
		},

		Scoring: ScoringConfig{
			Backend:      "semantic",
			Workers:      4,
			MaxRetries:   3,
			RetryBackoff: "2s",
			MaxBackoff:   "30s",
			CallTimeout:  "30s",
		},

		Embedding: EmbeddingConfig{
			Provider:       "genai",
			GenAIModel:     "text-embedding-004",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			RequestTimeout: "30s",
			Cache: CacheConfig{
				Enabled: true,
				Path:    filepath.Join(".refdrift", "embeddings.db"),
			},
		},

		Bands: BandsConfig{
			Semantic: reconcile.SemanticBands(),
			Lexical:  reconcile.LexicalBands(),
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path under the working
// directory.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".refdrift", "config.yaml")
	}
	return filepath.Join(cwd, ".refdrift", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults apply. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Embedding API key in priority order: the tool-specific variable wins,
	// then the two names Google's SDKs conventionally read.
	if key := os.Getenv("REFDRIFT_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}

	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		c.Embedding.OllamaEndpoint = endpoint
	}
	if model := os.Getenv("OLLAMA_EMBEDDING_MODEL"); model != "" {
		c.Embedding.OllamaModel = model
	}

	if backend := os.Getenv("REFDRIFT_SCORER"); backend != "" {
		c.Scoring.Backend = backend
	}

	if path := os.Getenv("REFDRIFT_CACHE_DB"); path != "" {
		c.Embedding.Cache.Path = path
	}
}

// ValidBackends lists the supported scoring backends.
var ValidBackends = []string{"semantic", "lexical"}

// ValidProviders lists the supported embedding providers.
var ValidProviders = []string{"genai", "ollama"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validBackend := false
	for _, b := range ValidBackends {
		if c.Scoring.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid scoring backend: %s (valid: %v)", c.Scoring.Backend, ValidBackends)
	}

	if c.Scoring.Backend == "semantic" {
		validProvider := false
		for _, p := range ValidProviders {
			if c.Embedding.Provider == p {
				validProvider = true
				break
			}
		}
		if !validProvider {
			return fmt.Errorf("invalid embedding provider: %s (valid: %v)", c.Embedding.Provider, ValidProviders)
		}
		if c.Embedding.Provider == "genai" && c.Embedding.GenAIAPIKey == "" {
			return fmt.Errorf("embedding API key not configured (set REFDRIFT_API_KEY, GEMINI_API_KEY, or GOOGLE_API_KEY)")
		}
	}

	if !snapshot.DuplicatePolicy(c.Input.DuplicatePolicy).Valid() {
		return fmt.Errorf("invalid duplicate policy: %s (valid: %s, %s)",
			c.Input.DuplicatePolicy, snapshot.LastWins, snapshot.Strict)
	}

	if len(c.Input.KeyAliases) == 0 {
		return fmt.Errorf("at least one key alias is required")
	}
	if len(c.Input.FieldAliases) == 0 {
		return fmt.Errorf("at least one field alias is required")
	}

	if err := c.Bands.Semantic.Validate(); err != nil {
		return fmt.Errorf("semantic bands: %w", err)
	}
	if err := c.Bands.Lexical.Validate(); err != nil {
		return fmt.Errorf("lexical bands: %w", err)
	}

	return nil
}

// ActiveBands returns the band set matching the configured scoring backend.
func (c *Config) ActiveBands() reconcile.Bands {
	if c.Scoring.Backend == "lexical" {
		return c.Bands.Lexical
	}
	return c.Bands.Semantic
}

// DuplicatePolicy returns the configured policy as its typed form.
func (c *Config) DuplicatePolicy() snapshot.DuplicatePolicy {
	return snapshot.DuplicatePolicy(c.Input.DuplicatePolicy)
}

// GetRetryBackoff returns the scorer retry backoff base as a duration.
func (c *Config) GetRetryBackoff() time.Duration {
	d, err := time.ParseDuration(c.Scoring.RetryBackoff)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetMaxBackoff returns the scorer backoff cap as a duration.
func (c *Config) GetMaxBackoff() time.Duration {
	d, err := time.ParseDuration(c.Scoring.MaxBackoff)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCallTimeout returns the per-scorer-call timeout as a duration.
func (c *Config) GetCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Scoring.CallTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRequestTimeout returns the embedding request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embedding.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWatchDebounce returns the watch debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
