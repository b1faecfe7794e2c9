package scoring

import "fmt"

// BackendError reports a scoring backend failure after internal retries were
// exhausted. The causes are transient (network failure, rate limiting,
// malformed provider response); callers can use errors.As to detect this
// error type and decide whether to rerun the field's comparison.
type BackendError struct {
	Backend  string
	Attempts int
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("scoring backend %s failed after %d attempt(s): %v", e.Backend, e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
