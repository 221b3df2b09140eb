package phonodist

import (
	"errors"
	"fmt"

	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/distance"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/internal/cache"
	"github.com/hupe1980/phonodist/internal/kmeans"
)

var (
	// ErrNotFound is returned when a phoneme is absent from the active feature system.
	ErrNotFound = errors.New("phoneme not found")

	// ErrSchema is returned for malformed feature or cognate tables.
	ErrSchema = errors.New("schema error")

	// ErrUnknownMethod is returned for a distance method name that is not registered.
	ErrUnknownMethod = errors.New("unknown distance method")

	// ErrUnknownSystem is returned for a feature system name that is not registered.
	ErrUnknownSystem = errors.New("unknown feature system")

	// ErrInvalidConfiguration is returned for out-of-range settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// PhonemeNotFoundError indicates a phoneme missing from a feature system.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type PhonemeNotFoundError struct {
	Phoneme string
	System  string
	cause   error
}

func (e *PhonemeNotFoundError) Error() string {
	return fmt.Sprintf("phoneme %q not found in feature system %q", e.Phoneme, e.System)
}

func (e *PhonemeNotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *PhonemeNotFoundError) Unwrap() error { return e.cause }

// SchemaError indicates a malformed table.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaError struct {
	Path   string
	Reason string
	cause  error
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema error: %s: %s", e.Path, e.Reason)
	}
	return "schema error: " + e.Reason
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.cause }

// UnknownMethodError indicates a distance method that is not registered.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type UnknownMethodError struct {
	Name  string
	cause error
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown distance method %q", e.Name)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

func (e *UnknownMethodError) Unwrap() error { return e.cause }

// ConfigError indicates an invalid setting.
type ConfigError struct {
	Field string
	Value any
	cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s = %v", e.Field, e.Value)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfiguration }

func (e *ConfigError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var nf *feature.NotFoundError
	if errors.As(err, &nf) {
		return &PhonemeNotFoundError{Phoneme: nf.Phoneme, System: nf.System, cause: err}
	}
	var se *feature.SchemaError
	if errors.As(err, &se) {
		return &SchemaError{Path: se.Path, Reason: se.Reason, cause: err}
	}
	if errors.Is(err, align.ErrSchema) {
		return &SchemaError{Reason: err.Error(), cause: err}
	}
	var um *distance.UnknownMethodError
	if errors.As(err, &um) {
		return &UnknownMethodError{Name: um.Name, cause: err}
	}
	if errors.Is(err, feature.ErrUnknownSystem) {
		return fmt.Errorf("%w: %w", ErrUnknownSystem, err)
	}
	if errors.Is(err, kmeans.ErrInvalidK) {
		return &ConfigError{Field: "clusters", Value: "<= 0", cause: err}
	}
	if errors.Is(err, cache.ErrInvalidCapacity) {
		return &ConfigError{Field: "cache_size", Value: "<= 0", cause: err}
	}

	return err
}
