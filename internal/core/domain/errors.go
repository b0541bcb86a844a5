package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrMovementNotFound  = errors.New("movement not found")
	ErrInvalidID         = errors.New("invalid identifier")
	ErrCategoryInUse     = errors.New("cannot delete category that has items, move or delete the items first")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmailTaken        = errors.New("email already registered")
	ErrForbidden         = errors.New("admin only")
	ErrUnauthorized      = errors.New("unauthorized")

	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still being processed")
)

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// Empty reports whether no field errors were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Error joins the field messages in a stable order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}
