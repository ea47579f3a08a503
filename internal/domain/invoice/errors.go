package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLineItems is returned when validation runs on an invoice
	// without a single line item.
	ErrEmptyLineItems = errors.New("invoice has no line items")
)

// ValidationError represents an error that occurs during invoice validation.
// Row is the zero-based line item index for row-scoped errors and -1 for
// invoice-level errors.
type ValidationError struct {
	Field   string
	Row     int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("validation failed for line item %d, field %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewMissingFieldError reports a required invoice-level field that is empty
func NewMissingFieldError(field string) error {
	return &ValidationError{
		Field:   field,
		Row:     -1,
		Message: "is required",
	}
}

// NewInvalidAmountError reports a line item carrying an unusable value
func NewInvalidAmountError(row int, field, message string) error {
	return &ValidationError{
		Field:   field,
		Row:     row,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if errors.Is(err, ErrEmptyLineItems) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError unwraps a *ValidationError when present
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
