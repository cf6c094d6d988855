package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable wraps transport failures: the server was not reached
	// or the response could not be read.
	ErrUnavailable = errors.New("rpc unavailable")
	ErrNotFound    = errors.New("not found")
	// ErrConflict is returned when a delete hits an entity that still has
	// dependent records.
	ErrConflict = errors.New("conflict")
)

// Error is a failure reported by the server for one procedure call.
type Error struct {
	Procedure  string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc %s: status %d", e.Procedure, e.StatusCode)
	}
	return fmt.Sprintf("rpc %s: status %d: %s", e.Procedure, e.StatusCode, e.Message)
}

// Is maps well-known status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError is returned before dispatch when a request is malformed.
type ValidationError struct {
	Procedure string
	Fields    []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid %s request: %s", e.Procedure, strings.Join(parts, "; "))
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
