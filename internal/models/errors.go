package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidInput    = errors.New("invalid input: not a collection of records")
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate key violation")
)

// ValidationError describes why a single record was rejected.
// It matches ErrMalformedRecord with errors.Is.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError creates a validation error with a machine readable code.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is ErrMalformedRecord or a ValidationError with the same code.
func (e *ValidationError) Is(target error) bool {
	if target == ErrMalformedRecord {
		return true
	}
	var other *ValidationError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// Validation error codes
const (
	CodeMissingMapID      = "missing_map_id"
	CodeUnknownMap        = "unknown_map"
	CodeNonPositiveTime   = "non_positive_time"
	CodeInvalidTime       = "invalid_time"
	CodeInvalidTimestamp  = "invalid_timestamp"
	CodeMissingPlayer     = "missing_player"
	CodeAmbiguousMode     = "ambiguous_mode"
	CodeInvalidRecordID   = "invalid_record_id"
	CodeRecordFieldsEmpty = "invalid_fields"
)
