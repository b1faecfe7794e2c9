package reconcile

import "fmt"

// Bands are the ordered similarity thresholds that grade a modified record.
// Raw similarity magnitudes are not comparable across scoring backends, so
// each backend carries its own band set and Classify must only see scores
// produced by the matching scorer.
type Bands struct {
	// Severe is the threshold below which a score is a severe change.
	Severe float64 `yaml:"severe"`
	// Moderate is the threshold below which a score (at or above Severe)
	// is a moderate change. Scores at or above it are minor wording changes.
	Moderate float64 `yaml:"moderate"`
}

// SemanticBands returns the canonical thresholds for embedding cosine scores.
func SemanticBands() Bands {
	return Bands{Severe: 0.55, Moderate: 0.80}
}

// LexicalBands returns the canonical thresholds for lexical ratio scores,
// which run lower than cosine scores for comparable edits.
func LexicalBands() Bands {
	return Bands{Severe: 0.40, Moderate: 0.75}
}

// Validate checks that both thresholds lie in [0,1] and are strictly ordered.
func (b Bands) Validate() error {
	if b.Severe < 0 || b.Severe > 1 || b.Moderate < 0 || b.Moderate > 1 {
		return fmt.Errorf("band thresholds must lie in [0,1], got severe=%v moderate=%v", b.Severe, b.Moderate)
	}
	if b.Severe >= b.Moderate {
		return fmt.Errorf("severe threshold %v must be below moderate threshold %v", b.Severe, b.Moderate)
	}
	return nil
}

// Classify grades one similarity score into its severity band.
func (b Bands) Classify(similarity float64) Severity {
	switch {
	case similarity < b.Severe:
		return SeveritySevere
	case similarity < b.Moderate:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}
