package services

import (
	"errors"
	"fmt"
	"net/http"

	"lessonpath-backend-go/internal/store"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Message: msg}
}

func ErrInternal(msg string) error {
	return ServiceError{Status: http.StatusInternalServerError, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// StatusOf reports the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Status
	}
	return http.StatusInternalServerError
}

// storeError turns store.ErrNotFound into a NotFound with the given message and
// wraps anything else with context.
func storeError(err error, notFound, context string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(notFound)
	}
	return WrapError(err, context)
}
