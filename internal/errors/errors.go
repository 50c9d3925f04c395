package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Error types for the translation memory engine
type ErrorType string

const (
	// Store errors
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeStorageIO       ErrorType = "storage_io"
	ErrorTypeDeserialization ErrorType = "deserialization"

	// Input errors
	ErrorTypeValidation ErrorType = "validation"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Translation backend errors
	ErrorTypeBackend ErrorType = "backend"
)

// StoreError represents a persistence failure for a stored document
type StoreError struct {
	Type       ErrorType
	Operation  string
	Resource   string // what was missing; empty means "translation memory"
	Pair       string // language pair, or the key of a non-TM resource
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewNotFound creates an error for a language pair with no persisted memory
func NewNotFound(op, pair string) *StoreError {
	return &StoreError{
		Type:      ErrorTypeNotFound,
		Operation: op,
		Pair:      pair,
		Timestamp: time.Now(),
	}
}

// NewResourceNotFound creates a not-found error for a named resource such
// as "glossary" or "glossary entry", keyed by its identifier
func NewResourceNotFound(op, resource, key string) *StoreError {
	return &StoreError{
		Type:      ErrorTypeNotFound,
		Operation: op,
		Resource:  resource,
		Pair:      key,
		Timestamp: time.Now(),
	}
}

// NewStorageIO creates an error for an underlying read/write/create failure
func NewStorageIO(op, path string, err error) *StoreError {
	return &StoreError{
		Type:       ErrorTypeStorageIO,
		Operation:  op,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewDeserialization creates an error for a file whose content cannot be decoded
func NewDeserialization(op, path string, err error) *StoreError {
	return &StoreError{
		Type:       ErrorTypeDeserialization,
		Operation:  op,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithPair adds the language pair to the error
func (e *StoreError) WithPair(pair string) *StoreError {
	e.Pair = pair
	return e
}

// WithPath adds the file path to the error
func (e *StoreError) WithPath(path string) *StoreError {
	e.Path = path
	return e
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Type == ErrorTypeNotFound {
		resource := e.Resource
		if resource == "" {
			resource = "translation memory"
		}
		return fmt.Sprintf("%s not found for %s", resource, e.Pair)
	}
	if e.Path != "" {
		return fmt.Sprintf("store %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *StoreError) Unwrap() error {
	return e.Underlying
}

// ValidationError represents rejected input to a single-unit mutation
type ValidationError struct {
	Type      ErrorType
	Field     string
	Reason    string
	Timestamp time.Time
}

// NewValidationError creates a new validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Type:      ErrorTypeValidation,
		Field:     field,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// BackendError represents a translation backend failure
type BackendError struct {
	Type       ErrorType
	Backend    string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewBackendError creates a new backend error
func NewBackendError(backend, op string, err error) *BackendError {
	return &BackendError{
		Type:       ErrorTypeBackend,
		Backend:    backend,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s %s failed: %v", e.Backend, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *BackendError) Unwrap() error {
	return e.Underlying
}

// IsNotFound reports whether err wraps a missing-memory store error
func IsNotFound(err error) bool {
	var se *StoreError
	return stderrors.As(err, &se) && se.Type == ErrorTypeNotFound
}

// IsStorageIO reports whether err wraps a storage I/O error
func IsStorageIO(err error) bool {
	var se *StoreError
	return stderrors.As(err, &se) && se.Type == ErrorTypeStorageIO
}

// IsDeserialization reports whether err wraps a decode error
func IsDeserialization(err error) bool {
	var se *StoreError
	return stderrors.As(err, &se) && se.Type == ErrorTypeDeserialization
}

// IsValidation reports whether err wraps a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrOrNil returns the multi-error, or nil when it holds no errors.
// Skip-and-continue batch operations aggregate through this.
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
