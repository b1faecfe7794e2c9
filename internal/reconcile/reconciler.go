// Package reconcile joins two keyed snapshots and classifies every record's
// change. It is the decision core of refdrift: for each key it determines
// whether the record is unchanged, modified, newly added, or removed, scores
// modified pairs through a pluggable scorer, and grades the score into a
// severity band. Presentation is someone else's job; the output is an
// in-memory Report.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"refdrift/internal/logging"
	"refdrift/internal/scoring"
	"refdrift/internal/snapshot"
)

// =============================================================================
// RECONCILER - SNAPSHOT JOIN AND CHANGE CLASSIFICATION
// =============================================================================
//
// The walk is two sequential passes that fix record order up front, then one
// bounded parallel pass that fills in similarity scores:
//
// 1. Before pass: every before-key becomes a Removed, NoChange, or Modified
//    record, in before-snapshot order. Modified pairs are queued as jobs.
// 2. After pass: keys seen only in the after snapshot become NewlyAdded
//    records, in after-snapshot order.
// 3. Scoring pass: queued jobs run concurrently under a slot semaphore; each
//    job writes its own pre-allocated record, so completion order never
//    affects report order. The first hard failure cancels the run.

// Field names one logical text column to compare, resolved to the actual
// header on each side. Label is what the report displays.
type Field struct {
	Label        string
	BeforeColumn string
	AfterColumn  string
}

// FieldFor builds a Field for snapshots that share one actual header.
func FieldFor(column string) Field {
	return Field{
		Label:        snapshot.NormalizeHeader(column),
		BeforeColumn: column,
		AfterColumn:  column,
	}
}

// ResolveField resolves an alias list against both snapshots' headers. The
// field is labeled with the normalized before-side name, which is the column
// baseline values are read from. Either side failing to resolve aborts the
// run before any comparison work.
func ResolveField(aliases, beforeHeaders, afterHeaders []string) (Field, error) {
	beforeCol, err := snapshot.ResolveColumn(beforeHeaders, aliases)
	if err != nil {
		return Field{}, fmt.Errorf("before snapshot: %w", err)
	}
	afterCol, err := snapshot.ResolveColumn(afterHeaders, aliases)
	if err != nil {
		return Field{}, fmt.Errorf("after snapshot: %w", err)
	}
	return Field{
		Label:        snapshot.NormalizeHeader(beforeCol),
		BeforeColumn: beforeCol,
		AfterColumn:  afterCol,
	}, nil
}

// Config tunes a Reconciler.
type Config struct {
	// Workers bounds concurrent scorer calls. Scorer backends rate-limit;
	// four in flight keeps well under the free-tier limits.
	Workers int
	// DuplicatePolicy controls how duplicate keys within one snapshot are
	// treated when building lookups.
	DuplicatePolicy snapshot.DuplicatePolicy
}

// DefaultConfig returns the standard reconciler tuning.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		DuplicatePolicy: snapshot.LastWins,
	}
}

// Reconciler classifies changes between snapshot pairs. It is agnostic to
// which scoring strategy is active; bands must match the injected scorer.
type Reconciler struct {
	scorer scoring.Scorer
	bands  Bands
	cfg    Config
}

// New builds a Reconciler around the given scorer and its matching bands.
func New(scorer scoring.Scorer, bands Bands, cfg Config) (*Reconciler, error) {
	if scorer == nil {
		return nil, errors.New("reconcile: scorer is required")
	}
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = snapshot.LastWins
	}
	if !cfg.DuplicatePolicy.Valid() {
		return nil, fmt.Errorf("reconcile: unknown duplicate policy %q", cfg.DuplicatePolicy)
	}
	return &Reconciler{scorer: scorer, bands: bands, cfg: cfg}, nil
}

// scoreJob is one queued scorer invocation targeting a pre-allocated record.
type scoreJob struct {
	idx  int
	code string
	a, b string
}

// Reconcile produces the change report for one field across one snapshot
// pair. Every key present in either snapshot appears exactly once. The run
// is all-or-nothing: a scorer failure returns an error and no report.
func (r *Reconciler) Reconcile(ctx context.Context, before, after *snapshot.Snapshot, field Field) (*Report, error) {
	timer := logging.StartTimer(logging.CategoryReconcile, "reconcile "+field.Label)
	defer timer.StopWithInfo()

	beforeLookup, err := before.Lookup(r.cfg.DuplicatePolicy)
	if err != nil {
		return nil, fmt.Errorf("before snapshot: %w", err)
	}
	afterLookup, err := after.Lookup(r.cfg.DuplicatePolicy)
	if err != nil {
		return nil, fmt.Errorf("after snapshot: %w", err)
	}

	records := make([]ChangeRecord, 0, len(beforeLookup)+len(afterLookup))
	var jobs []scoreJob

	// Before pass. Under LastWins a duplicated key keeps its first position
	// but compares the last occurrence's value, mirroring the lookup.
	seen := make(map[string]bool, len(beforeLookup))
	for _, rec := range before.Records() {
		if seen[rec.Code] {
			continue
		}
		seen[rec.Code] = true
		beforeVal := beforeLookup[rec.Code].Value(field.BeforeColumn)

		afterRec, ok := afterLookup[rec.Code]
		if !ok {
			records = append(records, ChangeRecord{
				Code:        rec.Code,
				Status:      StatusRemoved,
				Field:       field.Label,
				BeforeValue: beforeVal,
				Severity:    SeveritySevere,
			})
			continue
		}

		afterVal := afterRec.Value(field.AfterColumn)
		if beforeVal == afterVal {
			// Exact match short-circuits the scorer entirely, so NoChange
			// records never carry measurement noise.
			records = append(records, ChangeRecord{
				Code:          rec.Code,
				Status:        StatusNoChange,
				Field:         field.Label,
				BeforeValue:   beforeVal,
				AfterValue:    afterVal,
				Similarity:    1.0,
				HasSimilarity: true,
				Severity:      SeverityNoChange,
			})
			continue
		}

		records = append(records, ChangeRecord{
			Code:        rec.Code,
			Status:      StatusModified,
			Field:       field.Label,
			BeforeValue: beforeVal,
			AfterValue:  afterVal,
		})
		jobs = append(jobs, scoreJob{idx: len(records) - 1, code: rec.Code, a: beforeVal, b: afterVal})
	}

	// After pass: keys the before snapshot never had.
	for _, rec := range after.Records() {
		if seen[rec.Code] {
			continue
		}
		seen[rec.Code] = true
		records = append(records, ChangeRecord{
			Code:       rec.Code,
			Status:     StatusNewlyAdded,
			Field:      field.Label,
			AfterValue: afterLookup[rec.Code].Value(field.AfterColumn),
			Severity:   SeverityNewEntry,
		})
	}

	if err := r.scoreAll(ctx, records, jobs); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       uuid.New().String(),
		Field:       field.Label,
		BeforeName:  before.Name(),
		AfterName:   after.Name(),
		Scorer:      r.scorer.Name(),
		GeneratedAt: time.Now(),
		Records:     records,
	}
	logging.Reconcile("Reconciled field %q: %d before, %d after, %d records (%d scored) run=%s",
		field.Label, before.Len(), after.Len(), len(records), len(jobs), report.RunID)
	return report, nil
}

// scoreAll runs the queued scorer calls concurrently, bounded by the worker
// slot semaphore. Jobs write disjoint record slots, so no lock is needed and
// report order is independent of completion order.
func (r *Reconciler) scoreAll(ctx context.Context, records []ChangeRecord, jobs []scoreJob) error {
	if len(jobs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	slots := make(chan struct{}, r.cfg.Workers)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-slots }()

			sim, err := r.scorer.Score(gctx, job.a, job.b)
			if err != nil {
				return fmt.Errorf("scoring key %q: %w", job.code, err)
			}

			rec := &records[job.idx]
			rec.Similarity = sim
			rec.HasSimilarity = true
			rec.Severity = r.bands.Classify(sim)
			logging.ReconcileDebug("Scored key %q: %.4f -> %s", job.code, sim, rec.Severity)
			return nil
		})
	}

	return g.Wait()
}
