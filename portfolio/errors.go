package portfolio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAssets is returned by Advice when there is nothing to rebalance.
	ErrNoAssets = errors.New("no assets found")

	// ErrNotInitialized is returned when data is accessed before a password
	// (and with it the encryption key) has been set.
	ErrNotInitialized = errors.New("password has not been set")

	// ErrDuplicate is returned when a record would collide with an existing one.
	ErrDuplicate = errors.New("already exists")
)

// ValidationError reports invalid input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
