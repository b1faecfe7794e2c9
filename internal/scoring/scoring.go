// Package scoring measures the similarity of two text values in [0,1]. Two
// interchangeable strategies conform to the Scorer interface: Semantic
// (embedding cosine, external provider) and Lexical (local diff ratio, fully
// offline). Callers are expected to short-circuit exact matches themselves
// and never invoke a Scorer for identical trimmed values.
package scoring

import (
	"context"
)

// Scorer measures the similarity of two text values.
type Scorer interface {
	// Score returns the similarity of a and b in [0,1].
	Score(ctx context.Context, a, b string) (float64, error)

	// Name identifies the scoring strategy for logs and reports.
	Name() string
}

// clamp01 bounds a score to [0,1]. Cosine can drift a hair past the bounds
// from float rounding, and text embeddings can come out slightly negative.
func clamp01(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
