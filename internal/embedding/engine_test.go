package embedding

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scaled copies are parallel", []float32{1, 2}, []float32{2, 4}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilarityErrors(t *testing.T) {
	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		require.Error(t, err)
	})

	t.Run("empty vectors", func(t *testing.T) {
		_, err := CosineSimilarity(nil, nil)
		require.Error(t, err)
	})

	t.Run("zero magnitude", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
		require.Error(t, err)
	})
}

func TestCosineSimilarityRange(t *testing.T) {
	a := []float32{0.12, -0.8, 0.44, 0.3}
	b := []float32{-0.5, 0.21, 0.9, -0.07}

	got, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
	assert.GreaterOrEqual(t, got, -1.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "genai", cfg.Provider)
	assert.Equal(t, "text-embedding-004", cfg.GenAIModel)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaEndpoint)
	assert.Equal(t, "embeddinggemma", cfg.OllamaModel)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "tfidf"

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestNewEngineGenAIRequiresKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "genai"
	cfg.GenAIAPIKey = ""

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewEngineOllama(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, "ollama:embeddinggemma", engine.Name())
	assert.Equal(t, 768, engine.Dimensions())
}
