// Package errors maps application failures onto the API's response
// envelope: every error carries the HTTP status it should surface as and
// a message safe to show clients.
package errors

import (
	"fmt"
	"net/http"
)

// APIError is a client-visible failure with its HTTP status.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *APIError) Unwrap() error { return e.cause }

// WithCause attaches the server-side cause; it is logged, never returned
// to the client.
func (e *APIError) WithCause(err error) *APIError {
	clone := *e
	clone.cause = err
	return &clone
}

func New(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// BadRequest signals malformed or invalid input (400).
func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

// Unauthorized signals a missing or unusable credential (401).
func Unauthorized(message string) *APIError {
	if message == "" {
		message = "authentication required"
	}
	return New(http.StatusUnauthorized, message)
}

// Forbidden signals a recognized user lacking the required role (403).
func Forbidden(message string) *APIError {
	if message == "" {
		message = "insufficient permissions"
	}
	return New(http.StatusForbidden, message)
}

// NotFound signals an unknown id or tracking number (404).
func NotFound(resource string, identifier any) *APIError {
	return New(http.StatusNotFound, fmt.Sprintf("%s '%v' not found", resource, identifier))
}

// Internal signals an unexpected failure (500). The message shown to the
// client stays generic; the cause is for logs only.
func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "internal server error").WithCause(err)
}
