package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("shopping cart is empty")
	ErrSelfSubscription   = errors.New("cannot subscribe to yourself")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Validation failure reasons surfaced to clients.
const (
	ReasonEmpty               = "empty"
	ReasonTooLarge            = "too_large"
	ReasonOutOfRange          = "out_of_range"
	ReasonDuplicateIngredient = "duplicate_ingredient"
	ReasonUnknownIngredient   = "unknown_ingredient"
	ReasonBadAmount           = "bad_amount"
	ReasonBadFormat           = "bad_format"
	ReasonTaken               = "taken"
)

// ValidationError reports a deterministic, non-retryable input problem
// with a field-level reason.
type ValidationError struct {
	Field   string
	Reason  string
	IDs     []uuid.UUID
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.IDs) > 0 {
		ids := make([]string, len(e.IDs))
		for i, id := range e.IDs {
			ids[i] = id.String()
		}
		return fmt.Sprintf("%s: %s [%s]", e.Field, e.Message, strings.Join(ids, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func newValidationError(field, reason, message string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Message: message}
}
