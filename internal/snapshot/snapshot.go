// Package snapshot models one versioned, keyed collection of records: the
// "before" or "after" side of a comparison. It covers loading tabular input,
// resolving variant column headers to canonical fields, and keying rows by
// their stable code.
package snapshot

import (
	"strings"
)

// Record is one row of a snapshot: a stable key plus the row's cell values
// keyed by their actual column header.
type Record struct {
	Code   string
	Values map[string]string
}

// Value returns the cell under the given column header, trimmed of
// surrounding whitespace.
func (r Record) Value(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// DuplicatePolicy controls how duplicate keys within one snapshot are
// resolved when building a lookup.
type DuplicatePolicy string

const (
	// LastWins keeps the last record seen for a key.
	LastWins DuplicatePolicy = "last-wins"
	// Strict fails with a DuplicateKeyError on the first duplicated key.
	Strict DuplicatePolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p DuplicatePolicy) Valid() bool {
	return p == LastWins || p == Strict
}

// Snapshot is an ordered collection of Records for one point in time, keyed
// by Code. Immutable once built.
type Snapshot struct {
	name    string
	records []Record
}

// New builds a snapshot from already-keyed records, preserving their order.
func New(name string, records []Record) *Snapshot {
	return &Snapshot{name: name, records: records}
}

// FromTable keys a loaded table by the given key column, which must be an
// actual header of the table. Rows whose key cell is blank are dropped; all
// other rows are kept in file order.
func FromTable(t *Table, keyColumn string) (*Snapshot, error) {
	found := false
	for _, h := range t.Headers {
		if h == keyColumn {
			found = true
			break
		}
	}
	if !found {
		return nil, &ColumnNotFoundError{Aliases: []string{keyColumn}, Available: t.Headers}
	}

	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		code := strings.TrimSpace(row[keyColumn])
		if code == "" {
			continue
		}
		records = append(records, Record{Code: code, Values: row})
	}
	return New(t.Path, records), nil
}

// Name returns the snapshot's source name (typically the input path).
func (s *Snapshot) Name() string {
	return s.name
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Records returns the ordered records. Callers must not mutate the slice.
func (s *Snapshot) Records() []Record {
	return s.records
}

// Lookup builds a key→record map under the given duplicate policy. With
// LastWins the last record for a key silently replaces earlier ones; with
// Strict the first duplicated key fails with a *DuplicateKeyError carrying
// the key's total occurrence count.
func (s *Snapshot) Lookup(policy DuplicatePolicy) (map[string]Record, error) {
	lookup := make(map[string]Record, len(s.records))
	for _, rec := range s.records {
		if _, seen := lookup[rec.Code]; seen && policy == Strict {
			count := 0
			for _, r := range s.records {
				if r.Code == rec.Code {
					count++
				}
			}
			return nil, &DuplicateKeyError{Key: rec.Code, Count: count}
		}
		lookup[rec.Code] = rec
	}
	return lookup, nil
}
