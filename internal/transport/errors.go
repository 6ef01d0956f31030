package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/nixlim/presetdeck/internal/validate"
)

// Category classifies a failed run. Only NETWORK failures are retried.
type Category string

const (
	CategoryNetwork       Category = "NETWORK"
	CategoryInvalidSpec   Category = "INVALID_SPEC"
	CategoryInvalidResult Category = "INVALID_RESULT"
	CategoryAborted       Category = "ABORTED"
)

func (c Category) Retryable() bool {
	return c == CategoryNetwork
}

// Error is the single error type returned by Client.Execute.
type Error struct {
	Category Category
	Message  string
	Status   int
	Issues   []validate.Issue
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the category from err. Bare context errors count as
// aborted; anything unrecognised is treated as a network failure.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Category
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryAborted
	}
	return CategoryNetwork
}

func aborted(err error, attempts int) *Error {
	return &Error{Category: CategoryAborted, Message: "run aborted", Attempts: attempts, Err: err}
}
