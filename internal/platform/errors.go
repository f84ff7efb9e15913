package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is matched by every error caused by a metric
	// source that could not be opened, queried or parsed.
	ErrSourceUnavailable = errors.New("metric source unavailable")

	// ErrNotInitialized is returned when a backend is read before Initialize
	// or after Close.
	ErrNotInitialized = errors.New("backend not initialized")

	// ErrUnsupportedPlatform is returned when no native backend exists for
	// the running operating system or a remote host runs an unsupported OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// SourceError describes a failed read from a single metric source.
// It matches both ErrSourceUnavailable and the underlying cause.
type SourceError struct {
	Source string // e.g. "/proc/stat", "PdhCollectQueryData"
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/errors.As.
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

func unavailable(source, op string, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return &SourceError{Source: source, Op: op, Err: err}
}
