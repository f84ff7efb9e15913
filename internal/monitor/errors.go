package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/go-sysmon/internal/platform"
)

// ErrorSource identifies which reader produced an error.
type ErrorSource string

const (
	ErrorSourceCPU      ErrorSource = "cpu"
	ErrorSourceMemory   ErrorSource = "memory"
	ErrorSourceLoad     ErrorSource = "load"
	ErrorSourcePlatform ErrorSource = "platform"
)

// ComponentError wraps an error with source information.
// It preserves the original error for inspection via errors.Is/errors.As.
type ComponentError struct {
	Source ErrorSource
	Err    error
}

// Error implements the error interface.
func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *ComponentError) Unwrap() error {
	return e.Err
}

// NewComponentError creates a new ComponentError.
func NewComponentError(source ErrorSource, err error) *ComponentError {
	return &ComponentError{Source: source, Err: err}
}

// UpdateError aggregates the component errors of a single Poll call.
type UpdateError struct {
	Errors []*ComponentError
}

// Error implements the error interface.
func (e *UpdateError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("poll error: %v", e.Errors[0])
	}
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = ce.Error()
	}
	return fmt.Sprintf("poll errors (%d): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns the underlying errors so errors.Is matches any of them.
func (e *UpdateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}

// HasSource returns true if any error originated from the given source.
func (e *UpdateError) HasSource(source ErrorSource) bool {
	for _, ce := range e.Errors {
		if ce.Source == source {
			return true
		}
	}
	return false
}

// BySource returns all errors from the specified source.
func (e *UpdateError) BySource(source ErrorSource) []*ComponentError {
	var result []*ComponentError
	for _, ce := range e.Errors {
		if ce.Source == source {
			result = append(result, ce)
		}
	}
	return result
}

// Unavailable reports whether cpu, memory and load all failed with
// source-unavailable errors, i.e. the target produced nothing.
func (e *UpdateError) Unavailable() bool {
	return e.UnavailableFrom(ErrorSourceCPU) &&
		e.UnavailableFrom(ErrorSourceMemory) &&
		e.UnavailableFrom(ErrorSourceLoad)
}

// UnavailableFrom reports whether source failed with a source-unavailable error.
func (e *UpdateError) UnavailableFrom(source ErrorSource) bool {
	for _, ce := range e.BySource(source) {
		if errors.Is(ce, platform.ErrSourceUnavailable) {
			return true
		}
	}
	return false
}

// add appends a component error; nil errors are ignored.
func (e *UpdateError) add(source ErrorSource, err error) {
	if err != nil {
		e.Errors = append(e.Errors, NewComponentError(source, err))
	}
}

// errOrNil returns e as an error, or nil when nothing was collected.
func (e *UpdateError) errOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// AsUpdateError attempts to extract an UpdateError from an error.
// Returns nil if the error is not an UpdateError.
func AsUpdateError(err error) *UpdateError {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

// IsComponentError returns true if err wraps or is a ComponentError with the given source.
func IsComponentError(err error, source ErrorSource) bool {
	if ue := AsUpdateError(err); ue != nil {
		return ue.HasSource(source)
	}
	var ce *ComponentError
	return errors.As(err, &ce) && ce.Source == source
}
