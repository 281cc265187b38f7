// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/div176/div176/internal/auth"
)

// Kind classifies a request failure for its outward HTTP mapping.
type Kind int

// Failure kinds shared by every handler.
const (
	// KindUnauthorized covers missing or invalid credentials and sessions.
	KindUnauthorized Kind = iota
	// KindForbidden covers authenticated but disallowed actions.
	KindForbidden
	// KindNotFound covers absent resources and routes.
	KindNotFound
	// KindValidationFailed covers malformed input with field-level errors.
	KindValidationFailed
	// KindInternal covers storage and cryptographic failures; detail is
	// logged server-side and withheld from the client.
	KindInternal
)

// Error is a classified request failure.
type Error struct {
	Kind Kind

	// Fields carries field name to messages for KindValidationFailed.
	Fields map[string][]string

	// cause is the underlying error, logged for KindInternal and never
	// sent to the client.
	cause error
}

// Error implements the error interface with the client-safe message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindUnauthorized:
		return "authentication required"
	case KindForbidden:
		return "you may not perform that action"
	case KindNotFound:
		return "not found"
	case KindValidationFailed:
		return "error in the request body"
	default:
		return "an internal error occurred"
	}
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode maps the kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized returns the uniform unauthorized failure.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized}
}

// Forbidden returns a forbidden failure.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden}
}

// NotFound returns a not-found failure.
func NotFound() *Error {
	return &Error{Kind: KindNotFound}
}

// ValidationFailed returns a field-level validation failure.
func ValidationFailed(fields map[string][]string) *Error {
	return &Error{Kind: KindValidationFailed, Fields: fields}
}

// Internal wraps an unexpected failure whose detail must stay server-side.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, cause: cause}
}

// Classify converts an arbitrary error into a taxonomy Error.
// auth sentinels map to the unauthorized kind; anything unrecognised is
// internal.
func Classify(err error) *Error {
	var webErr *Error
	if errors.As(err, &webErr) {
		return webErr
	}
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidSession) {
		return Unauthorized()
	}
	if errors.Is(err, auth.ErrNotFound) {
		return NotFound()
	}
	return Internal(err)
}

// WriteError renders a classified error to the client. Internal causes
// are logged with full detail; the client only ever sees the generic
// message for the kind.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e := Classify(err)

	if e.Kind == KindInternal {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", e.cause,
		)
	}

	if e.Kind == KindValidationFailed {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(e.StatusCode())
		//nolint:errcheck // client may have disconnected; nothing to recover
		json.NewEncoder(w).Encode(map[string]any{"errors": e.Fields})
		return
	}

	http.Error(w, e.Error(), e.StatusCode())
}
