package reconcile

import (
	"strconv"
	"time"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Status tells how a key's record relates across the two snapshots.
type Status string

const (
	// StatusNoChange - key present on both sides with identical trimmed values
	StatusNoChange Status = "No Change"
	// StatusModified - key present on both sides with differing values
	StatusModified Status = "Modified"
	// StatusNewlyAdded - key present only in the after snapshot
	StatusNewlyAdded Status = "Newly Added"
	// StatusRemoved - key present only in the before snapshot
	StatusRemoved Status = "Removed"
)

// Severity grades the impact of a change. Modified records are graded by
// similarity band; the other statuses map to fixed severities.
type Severity string

const (
	// SeverityNoChange - exact match, no impact
	SeverityNoChange Severity = "No Change"
	// SeverityMinor - wording drift, same substance
	SeverityMinor Severity = "Minor Wording Change"
	// SeverityModerate - meaningful edits within the same record
	SeverityModerate Severity = "Moderate Change"
	// SeveritySevere - heavy rewrite, or the record was removed outright
	SeveritySevere Severity = "Severe Change"
	// SeverityNewEntry - record did not exist before
	SeverityNewEntry Severity = "New Entry"
)

// ChangeRecord is one row of the report: the relationship between the
// before/after pair (or one-sided presence) of a single key for one field.
//
// Invariants: Removed records carry SeveritySevere and no similarity;
// NewlyAdded records carry SeverityNewEntry and no similarity; NoChange
// records carry similarity exactly 1.0 without the scorer being invoked.
type ChangeRecord struct {
	Code        string
	Status      Status
	Field       string
	BeforeValue string
	AfterValue  string

	// Similarity is only meaningful when HasSimilarity is set; Removed and
	// NewlyAdded records never carry one because no comparison was possible.
	Similarity    float64
	HasSimilarity bool

	Severity Severity
}

// SimilarityString renders the similarity to four decimal places, or an
// empty string when the record carries none.
func (c ChangeRecord) SimilarityString() string {
	if !c.HasSimilarity {
		return ""
	}
	return strconv.FormatFloat(c.Similarity, 'f', 4, 64)
}

// Report is the full reconciliation of one field across one snapshot pair.
// Records hold before-snapshot order first, then newly added keys in
// after-snapshot order. Immutable after construction.
type Report struct {
	RunID       string
	Field       string
	BeforeName  string
	AfterName   string
	Scorer      string
	GeneratedAt time.Time
	Records     []ChangeRecord
}
