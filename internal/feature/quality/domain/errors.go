// Package domain defines domain-level errors for the quality feature.
package domain

import (
	"errors"
	"fmt"
)

// ErrStoreDisabled is returned by store adapters that have no backing connection.
var ErrStoreDisabled = errors.New("store not configured")

// FetchError indicates that the upstream payload could not be obtained:
// a non-200 status, exhausted retries, a transport failure or timeout,
// or an in-band error reported inside an otherwise successful response.
type FetchError struct {
	URL        string // upstream URL with credentials redacted
	StatusCode int    // last HTTP status, 0 when no response was received
	Attempts   int    // number of attempts made
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: http %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: http %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IngestError indicates that a payload did not match the configured upstream schema.
type IngestError struct {
	Variant string
	Err     error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Variant, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// ValidationError indicates a failure of the expectation engine itself.
// A failed expectation is a normal result and never produces this error.
type ValidationError struct {
	Expectation string
	Err         error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Expectation, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure. It is logged and never aborts a run.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AlertError wraps a delivery failure of the alert channel. It is logged and never aborts a run.
type AlertError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AlertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alert delivery: %v", e.Err)
	}
	return fmt.Sprintf("alert delivery: provider status %d: %s", e.StatusCode, e.Body)
}

func (e *AlertError) Unwrap() error { return e.Err }
