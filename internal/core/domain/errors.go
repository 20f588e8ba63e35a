package domain

import "fmt"

// The three fatal error classes of a sync run. Batch write failures are not
// here on purpose: they are counted per batch and never abort the run.

// FetchError means the feed could not be retrieved after bounded retries.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the feed bytes did not decode to the expected structure.
// Never retried: a malformed static response stays malformed.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed parse failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("feed parse failed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SnapshotReadError means the prior-state index could not be fully loaded.
// A partial index would corrupt every downstream classification, so this is
// always fatal.
type SnapshotReadError struct {
	Provider string
	Err      error
}

func (e *SnapshotReadError) Error() string {
	return fmt.Sprintf("snapshot load failed for provider %s: %v", e.Provider, e.Err)
}

func (e *SnapshotReadError) Unwrap() error { return e.Err }
