package feature

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a phoneme is absent from a System.
	ErrNotFound = errors.New("phoneme not found")

	// ErrSchema is returned for malformed feature tables.
	ErrSchema = errors.New("invalid feature table")

	// ErrUnknownSystem is returned when no System is registered under a name.
	ErrUnknownSystem = errors.New("unknown feature system")

	// ErrUnknownFeature is returned when a constraint names a feature the
	// System does not define.
	ErrUnknownFeature = errors.New("unknown feature")
)

// NotFoundError reports a phoneme missing from a System.
type NotFoundError struct {
	Phoneme string
	System  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("phoneme %q not found in system %q", e.Phoneme, e.System)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SchemaError reports a malformed feature table.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid feature table: %s", e.Reason)
	}
	return fmt.Sprintf("invalid feature table %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

func schemaErrorf(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
