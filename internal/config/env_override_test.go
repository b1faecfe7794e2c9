package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setAllKeyEnvs(t *testing.T) {
	t.Helper()
	t.Setenv("REFDRIFT_API_KEY", "rd")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("GOOGLE_API_KEY", "goog")
}

func TestEnvOverrides_APIKey(t *testing.T) {
	t.Run("REFDRIFT_API_KEY wins over everything", func(t *testing.T) {
		setAllKeyEnvs(t)

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "rd", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("No REFDRIFT -> GEMINI wins", func(t *testing.T) {
		setAllKeyEnvs(t)
		t.Setenv("REFDRIFT_API_KEY", "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("No GEMINI -> GOOGLE wins", func(t *testing.T) {
		setAllKeyEnvs(t)
		t.Setenv("REFDRIFT_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "goog", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("Nothing set keeps file value", func(t *testing.T) {
		clearEnv(t)

		cfg := &Config{Embedding: EmbeddingConfig{GenAIAPIKey: "from-file"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("Env overrides file value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gem")

		cfg := &Config{Embedding: EmbeddingConfig{GenAIAPIKey: "from-file"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem", cfg.Embedding.GenAIAPIKey)
	})
}

func TestEnvOverrides_Ollama(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_ENDPOINT", "http://custom:11434")
	t.Setenv("OLLAMA_EMBEDDING_MODEL", "custom-model")

	cfg := &Config{}
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://custom:11434", cfg.Embedding.OllamaEndpoint)
	assert.Equal(t, "custom-model", cfg.Embedding.OllamaModel)
}

func TestEnvOverrides_ScorerAndCache(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFDRIFT_SCORER", "lexical")
	t.Setenv("REFDRIFT_CACHE_DB", "/tmp/vectors.db")

	cfg := &Config{}
	cfg.applyEnvOverrides()

	assert.Equal(t, "lexical", cfg.Scoring.Backend)
	assert.Equal(t, "/tmp/vectors.db", cfg.Embedding.Cache.Path)
}
