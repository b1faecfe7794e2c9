// Package embedding turns text into fixed-dimension vectors for semantic
// change scoring. Two providers are supported behind one Engine interface:
// Google GenAI (cloud) and Ollama (local), plus a SQLite-backed cache that
// avoids re-embedding cell values that recur across snapshot versions.
package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"refdrift/internal/logging"
)

// =============================================================================
// ENGINE INTERFACE
// =============================================================================

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings
	Dimensions() int

	// Name returns the engine name
	Name() string

	// Close releases the provider connection
	Close() error
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds embedding engine configuration. It is injected into NewEngine
// by the caller; engines never read package-level state.
type Config struct {
	// Provider: "genai" or "ollama"
	Provider string

	// GenAI configuration
	GenAIAPIKey string
	GenAIModel  string // Default: "text-embedding-004"

	// Ollama configuration
	OllamaEndpoint string // Default: "http://localhost:11434"
	OllamaModel    string // Default: "embeddinggemma"

	// RequestTimeout bounds each provider round-trip.
	RequestTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       "genai",
		GenAIModel:     "text-embedding-004",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		RequestTimeout: 30 * time.Second,
	}
}

// =============================================================================
// FACTORY
// =============================================================================

// NewEngine creates an embedding engine based on configuration.
func NewEngine(cfg Config) (Engine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewEngine")
	defer timer.Stop()

	logging.Embedding("Creating embedding engine with provider=%s", cfg.Provider)

	var engine Engine
	var err error

	switch cfg.Provider {
	case "genai":
		logging.EmbeddingDebug("Initializing GenAI engine: model=%s", cfg.GenAIModel)
		engine, err = NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel)
	case "ollama":
		logging.EmbeddingDebug("Initializing Ollama engine: endpoint=%s, model=%s", cfg.OllamaEndpoint, cfg.OllamaModel)
		engine, err = NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel, cfg.RequestTimeout)
	default:
		err = fmt.Errorf("unsupported embedding provider: %s (use 'genai' or 'ollama')", cfg.Provider)
	}

	if err != nil {
		logging.Get(logging.CategoryEmbedding).Error("Failed to create embedding engine: %v", err)
		return nil, err
	}

	logging.Embedding("Embedding engine ready: name=%s, dimensions=%d", engine.Name(), engine.Dimensions())
	return engine, nil
}

// =============================================================================
// COSINE SIMILARITY
// =============================================================================

// CosineSimilarity calculates the cosine of the angle between two vectors:
// dot(a,b) / (‖a‖·‖b‖). Returns a value between -1 and 1. Fails on dimension
// mismatch or a zero-magnitude vector, both of which indicate a malformed
// provider response.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors are empty")
	}

	var dot, aMag, bMag float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0, fmt.Errorf("zero magnitude vector")
	}

	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
