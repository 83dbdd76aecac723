// internal/app/system/apperrors/apperrors.go
// Package apperrors defines the request error taxonomy shared by the
// policy layer, stores, and handlers.
//
// DataError, NotFoundError, and PermissionError abort the request with the
// primary mutation unperformed. NotificationError marks a failure that
// happened after the primary write committed; it is logged and swallowed,
// never surfaced to the caller.
package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DataError means a call was made with missing or malformed identifiers.
// It fails before any lookup or side effect.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string { return "data error: " + e.Msg }

// NewData builds a DataError.
func NewData(format string, args ...any) *DataError {
	return &DataError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means a referenced resource is absent. Existence is checked
// before permission, so a missing resource never reports as forbidden.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NewNotFound builds a NotFoundError for the named resource.
func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// PermissionError means the actor failed an authorization check.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return "permission denied: " + e.Msg }

// NewPermission builds a PermissionError.
func NewPermission(format string, args ...any) *PermissionError {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

// NotificationError wraps a failure in fan-out or unread/presence
// bookkeeping after a successful primary mutation.
type NotificationError struct {
	Op  string
	Err error
}

func (e *NotificationError) Error() string {
	return "notification failed during " + e.Op + ": " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error { return e.Err }

// IsData reports whether err is a DataError.
func IsData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// Status maps an error to the HTTP status a JSON handler should return.
func Status(err error) int {
	switch {
	case IsData(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsPermission(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes err as a JSON error response with the mapped status.
// Internal errors are masked so database details never reach the client.
func WriteJSON(w http.ResponseWriter, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
