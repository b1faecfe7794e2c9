package snapshot

import "fmt"

// ColumnNotFoundError reports that no alias matched any column header. This
// is fatal for the comparison: callers should abort before any scoring work.
// Callers can use errors.As to detect this error type.
type ColumnNotFoundError struct {
	Aliases   []string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("none of the columns %v found (available: %v)", e.Aliases, e.Available)
}

// DuplicateKeyError reports a key appearing more than once within one
// snapshot. Raised only under the Strict duplicate policy.
type DuplicateKeyError struct {
	Key   string
	Count int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %q appears %d times in snapshot", e.Key, e.Count)
}
