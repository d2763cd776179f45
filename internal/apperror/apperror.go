// Package apperror defines the error taxonomy shared by every layer.
//
// Each layer wraps failures into one of the sentinel categories below so that
// callers can branch with errors.Is without caring which layer produced the
// error. The *AppError wrapper carries the human-readable message that the
// notification layer surfaces to the user.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a local precondition failure (empty title, blank
	// folder name, ...). Validation errors never reach the remote store.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a write attempted by someone other than the owner.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks a store-side uniqueness rejection.
	ErrConflict = errors.New("conflict")

	// ErrRemote marks a failed row-store call: transport failure, auth
	// rejection, or a store-side error. Local state must not change when a
	// write fails with ErrRemote.
	ErrRemote = errors.New("remote error")

	// ErrDecode marks a remote row that could not be parsed into a typed
	// record (missing or mistyped required field).
	ErrDecode = errors.New("decode error")

	// ErrPartialLink marks the create-folder-then-link workflow failing on
	// the second step: the folder exists but the snippet was not linked.
	ErrPartialLink = errors.New("folder created but snippet not linked")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable, shown in notifications
	Field   string // optional: field that failed validation
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// PartialLinkError reports the non-atomic folder-linking workflow stopping
// halfway. FolderID identifies the folder that was created so the caller can
// offer a retry of just the link step.
type PartialLinkError struct {
	FolderID  string
	SnippetID string
	Err       error // the failed link step
}

func (e *PartialLinkError) Error() string {
	return fmt.Sprintf("folder %s created but snippet %s not linked: %v",
		e.FolderID, e.SnippetID, e.Err)
}

// Unwrap reports ErrPartialLink so errors.Is(err, ErrPartialLink) matches.
// The underlying link failure stays reachable through Cause.
func (e *PartialLinkError) Unwrap() error {
	return ErrPartialLink
}

// Cause returns the error from the failed link step.
func (e *PartialLinkError) Cause() error {
	return e.Err
}
