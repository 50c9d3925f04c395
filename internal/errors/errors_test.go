package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("load", "en→it")

	if err.Type != ErrorTypeNotFound {
		t.Errorf("Expected Type to be ErrorTypeNotFound, got %v", err.Type)
	}

	if err.Pair != "en→it" {
		t.Errorf("Expected Pair to be 'en→it', got %s", err.Pair)
	}

	expectedMsg := "translation memory not found for en→it"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if !IsNotFound(err) {
		t.Errorf("Expected IsNotFound to report true")
	}

	if IsStorageIO(err) || IsDeserialization(err) {
		t.Errorf("NotFound must not satisfy other store predicates")
	}
}

func TestResourceNotFoundError(t *testing.T) {
	err := NewResourceNotFound("get", "glossary", "game-1")

	if !IsNotFound(err) {
		t.Errorf("Expected IsNotFound to report true")
	}

	expectedMsg := "glossary not found for game-1"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestStorageIOError(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewStorageIO("save", "/data/tm_en_it.json", underlying)

	if err.Type != ErrorTypeStorageIO {
		t.Errorf("Expected Type to be ErrorTypeStorageIO, got %v", err.Type)
	}

	if err.Path != "/data/tm_en_it.json" {
		t.Errorf("Expected Path to be '/data/tm_en_it.json', got %s", err.Path)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "store save failed for /data/tm_en_it.json: disk full"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if !IsStorageIO(err) {
		t.Errorf("Expected IsStorageIO to report true")
	}
}

func TestDeserializationError(t *testing.T) {
	underlying := errors.New("unexpected end of JSON input")
	err := NewDeserialization("load", "/data/tm_en_it.json", underlying).WithPair("en→it")

	if err.Type != ErrorTypeDeserialization {
		t.Errorf("Expected Type to be ErrorTypeDeserialization, got %v", err.Type)
	}

	if err.Pair != "en→it" {
		t.Errorf("Expected WithPair to set the pair, got %s", err.Pair)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	if !IsDeserialization(err) {
		t.Errorf("Expected IsDeserialization to report true")
	}
}

func TestPredicatesOnWrappedErrors(t *testing.T) {
	inner := NewNotFound("export", "en→ja")
	wrapped := fmt.Errorf("exporting: %w", inner)

	if !IsNotFound(wrapped) {
		t.Errorf("Expected IsNotFound to see through fmt.Errorf wrapping")
	}

	if IsNotFound(errors.New("plain")) {
		t.Errorf("Plain errors must not satisfy IsNotFound")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("source_text", "must not be blank")

	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected Type to be ErrorTypeValidation, got %v", err.Type)
	}

	expectedMsg := "validation failed for source_text: must not be blank"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if !IsValidation(err) {
		t.Errorf("Expected IsValidation to report true")
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid value")
	err := NewConfigError("min_similarity", "1.5", underlying)

	if err.Field != "min_similarity" {
		t.Errorf("Expected Field to be 'min_similarity', got %s", err.Field)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `config error for field min_similarity (value 1.5): invalid value`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestBackendError(t *testing.T) {
	underlying := errors.New("rate limit reached")
	err := NewBackendError("deepl", "translate", underlying)

	if err.Backend != "deepl" {
		t.Errorf("Expected Backend to be 'deepl', got %s", err.Backend)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "backend deepl translate failed: rate limit reached"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})

	if len(multiErr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(multiErr.Errors))
	}

	errMsg := multiErr.Error()
	if len(errMsg) < 10 || errMsg[:10] != "3 errors: " {
		t.Errorf("Expected message to start with '3 errors: ', got %q", errMsg)
	}

	// Single error collapses to its own message
	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("Expected 'error 1', got %q", singleErr.Error())
	}

	// Nil errors are filtered out
	nilFiltered := NewMultiError([]error{err1, nil, err2, nil})
	if len(nilFiltered.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(nilFiltered.Errors))
	}

	unwrapped := multiErr.Unwrap()
	if len(unwrapped) != 3 {
		t.Errorf("Expected 3 unwrapped errors, got %d", len(unwrapped))
	}
}

func TestMultiErrorErrOrNil(t *testing.T) {
	if err := NewMultiError(nil).ErrOrNil(); err != nil {
		t.Errorf("Expected nil for empty MultiError, got %v", err)
	}

	if err := NewMultiError([]error{nil, nil}).ErrOrNil(); err != nil {
		t.Errorf("Expected nil when all errors filtered, got %v", err)
	}

	me := NewMultiError([]error{errors.New("boom")})
	if err := me.ErrOrNil(); err == nil {
		t.Errorf("Expected non-nil for populated MultiError")
	}
}

func TestTimestamp(t *testing.T) {
	err := NewStorageIO("save", "/tmp/x.json", errors.New("test"))
	if err.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}

	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", err.Timestamp)
	}
}
