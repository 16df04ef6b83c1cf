package services

import (
	"errors"
	"fmt"

	"carrental/internal/repositories/interfaces"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// ServiceError pairs a kind with a message that is safe to show clients.
type ServiceError struct {
	Kind    error
	Message string
	Details map[string]string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Is(target error) bool {
	return e.Kind == target
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func invalidInput(format string, args ...interface{}) error {
	return newError(ErrInvalidInput, format, args...)
}

func unauthorized(format string, args ...interface{}) error {
	return newError(ErrUnauthorized, format, args...)
}

// validationFailed wraps field errors from the validators package.
func validationFailed(details map[string]string) error {
	return &ServiceError{Kind: ErrInvalidInput, Message: "validation failed", Details: details}
}

// translateRepoError turns a repository not-found into a NotFound with msg
// and wraps anything else as an internal error.
func translateRepoError(err error, msg string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return notFound("%s", msg)
	}
	return err
}
