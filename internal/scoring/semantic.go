package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"refdrift/internal/embedding"
	"refdrift/internal/logging"
)

// blankToken is embedded in place of blank or whitespace-only values; the
// provider must never see zero-length input.
const blankToken = "empty"

// SemanticConfig tunes the semantic scorer's resilience.
type SemanticConfig struct {
	// MaxRetries is the number of additional attempts after a transient
	// provider failure.
	MaxRetries int
	// RetryBackoff is the base delay before a retry; it doubles per attempt.
	RetryBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// CallTimeout bounds each provider round-trip.
	CallTimeout time.Duration
}

// DefaultSemanticConfig returns sensible defaults.
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		MaxRetries:   3,
		RetryBackoff: 2 * time.Second,
		MaxBackoff:   30 * time.Second,
		CallTimeout:  30 * time.Second,
	}
}

// Semantic scores similarity as the cosine of the two values' embedding
// vectors. Each Score call is a blocking provider round-trip; transient
// failures are retried with exponential backoff before a *BackendError is
// surfaced.
type Semantic struct {
	engine embedding.Engine
	cfg    SemanticConfig
}

// NewSemantic creates a semantic scorer over the given embedding engine.
func NewSemantic(engine embedding.Engine, cfg SemanticConfig) *Semantic {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Semantic{engine: engine, cfg: cfg}
}

// Score embeds both values and returns their cosine similarity clamped to
// [0,1]. Blank values are embedded as the reserved token.
func (s *Semantic) Score(ctx context.Context, a, b string) (float64, error) {
	texts := []string{normalizeBlank(a), normalizeBlank(b)}

	attempts := 0
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryBackoff(attempt)
			logging.Scoring("Retrying semantic score in %v (attempt %d/%d): %v",
				delay, attempt+1, s.cfg.MaxRetries+1, lastErr)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		attempts++
		sim, err := s.scoreOnce(ctx, texts)
		if err == nil {
			return sim, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// Parent cancelled; retrying cannot help.
			return 0, ctx.Err()
		}
	}

	return 0, &BackendError{Backend: s.engine.Name(), Attempts: attempts, Err: lastErr}
}

// scoreOnce performs one embed round-trip under the per-call timeout.
func (s *Semantic) scoreOnce(ctx context.Context, texts []string) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	vecs, err := s.engine.EmbedBatch(callCtx, texts)
	if err != nil {
		return 0, err
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
	}

	sim, err := embedding.CosineSimilarity(vecs[0], vecs[1])
	if err != nil {
		return 0, err
	}
	return clamp01(sim), nil
}

// retryBackoff doubles the base delay per attempt, capped at MaxBackoff.
func (s *Semantic) retryBackoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > 10 {
		shift = 10
	}
	backoff := s.cfg.RetryBackoff * time.Duration(1<<shift)
	if backoff > s.cfg.MaxBackoff {
		backoff = s.cfg.MaxBackoff
	}
	return backoff
}

// Name identifies the strategy and its provider.
func (s *Semantic) Name() string {
	return "semantic:" + s.engine.Name()
}

// normalizeBlank substitutes the reserved token for blank values.
func normalizeBlank(text string) string {
	if strings.TrimSpace(text) == "" {
		return blankToken
	}
	return text
}
