package core

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed input. It is detected before
// any store access and never retried.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	ErrEmptyTitle    = ValidationError("title is required")
	ErrEmptyDate     = ValidationError("date is required")
	ErrEmptyType     = ValidationError("type is required")
	ErrMissingAmount = ValidationError("amount is required")
	ErrInvalidAmount = ValidationError("invalid amount")
	ErrInvalidID     = ValidationError("invalid id")
)

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// StoreError is an underlying persistence failure (IO, constraint, disk).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStore reports whether err is, or wraps, a StoreError.
func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
