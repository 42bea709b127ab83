// Package apperr defines the typed failures surfaced by the service layer.
// Handlers map these to HTTP statuses; any other error is treated as an
// infrastructure failure and reported as internal.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed caller input, such as an empty name or
// an empty invitation code.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced user, list, item or invitation code
// does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NotFound builds a NotFoundError for the given resource and lookup key.
func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// DuplicateError indicates a uniqueness violation, such as an item name
// collision within a list or a taken username.
type DuplicateError struct {
	Resource string
	Key      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}

// Duplicate builds a DuplicateError for the given resource and key.
func Duplicate(resource, key string) error {
	return &DuplicateError{Resource: resource, Key: key}
}

// ConflictError indicates an operation gave up after repeated contention,
// such as failing to mint a collision-free invitation code.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflict builds a ConflictError from a format string.
func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var target *DuplicateError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
