// Package apperror defines the failure kinds surfaced by the attendance workflows and
// their translation into HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindRecognizer
	KindDecode
)

// Separator splits the kind label from the human readable part of a failure string.
const Separator = ": "

var labels = map[Kind]string{
	KindInternal:     "Internal",
	KindNotFound:     "Not Found",
	KindConflict:     "Conflict",
	KindForbidden:    "Forbidden",
	KindUnauthorized: "Unauthorized",
	KindBadRequest:   "Bad Request",
	KindRecognizer:   "Recognizer Error",
	KindDecode:       "Decode Error",
}

func (k Kind) String() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return labels[KindInternal]
}

// Error is a tagged failure carrying a machine checkable kind and a user facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message == "" {
		return e.Kind.String() + Separator + e.Err.Error()
	}
	return e.Kind.String() + Separator + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a failure of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a failure of the given kind around a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(format string, args ...any) *Error     { return New(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error     { return New(KindConflict, format, args...) }
func Forbidden(format string, args ...any) *Error    { return New(KindForbidden, format, args...) }
func Unauthorized(format string, args ...any) *Error { return New(KindUnauthorized, format, args...) }
func BadRequest(format string, args ...any) *Error   { return New(KindBadRequest, format, args...) }
func Recognizer(format string, args ...any) *Error   { return New(KindRecognizer, format, args...) }

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a failure to its transport status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest, KindRecognizer:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage extracts the human readable part of a failure. Internal failures never
// leak their detail and always yield the fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindInternal || appErr.Kind == KindDecode {
			return fallback
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		return fallback
	}
	return split(err.Error(), fallback)
}

func split(failure, fallback string) string {
	_, rest, found := strings.Cut(failure, Separator)
	if !found || strings.TrimSpace(rest) == "" {
		return fallback
	}
	return rest
}
