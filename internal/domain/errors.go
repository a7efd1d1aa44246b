package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrFormat      = errors.New("invalid format")
	ErrForbidden   = errors.New("forbidden")
)

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a backend failure. Retryable is set for transient
// failures such as timeouts or dropped connections.
type PersistenceError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// IsRetryable reports whether err is a persistence failure worth retrying.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Retryable
}
