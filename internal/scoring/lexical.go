package scoring

import (
	"context"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"refdrift/internal/logging"
)

// Lexical scores similarity as a longest-matching-subsequence ratio over the
// two strings: 2*M/T, where M is the number of matched characters and T the
// total length of both inputs. Deterministic and fully offline.
type Lexical struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewLexical creates the lexical scorer.
func NewLexical() *Lexical {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	return &Lexical{dmp: dmp}
}

// Score returns 2*M/T over the character diff of a and b. Two empty strings
// score 1.0 by definition. Never fails; the error is always nil.
func (l *Lexical) Score(_ context.Context, a, b string) (float64, error) {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0, nil
	}

	matched := 0
	for _, d := range l.dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}

	ratio := 2 * float64(matched) / float64(total)
	logging.ScoringDebug("Lexical ratio %.4f (matched=%d, total=%d)", ratio, matched, total)
	return clamp01(ratio), nil
}

// Name identifies the strategy.
func (l *Lexical) Name() string {
	return "lexical"
}
