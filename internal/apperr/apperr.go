// Package apperr defines the error taxonomy surfaced to polyglot users.
//
// Every failure that reaches a user action (submit, summarize, translate) is an
// *Error carrying a Kind. The Kind decides the HTTP status and lets callers
// branch without string matching; the Message is the text shown to the user.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	// KindUnavailable means the host engine does not expose the capability at all.
	KindUnavailable Kind = "unavailable"

	// KindUnsupported means the capability exists but cannot serve this request
	// (device not supported, language or language pair not supported).
	KindUnsupported Kind = "unsupported"

	// KindLowConfidence means the detector's top guess scored below the threshold.
	KindLowConfidence Kind = "low_confidence"

	// KindEmptyResult means the engine returned nothing usable.
	KindEmptyResult Kind = "empty_result"

	// KindSameLanguage means a translation into the text's own language was requested.
	KindSameLanguage Kind = "same_language"

	// KindEngine wraps transport or model failures reported by the engine.
	KindEngine Kind = "engine"

	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"

	// KindBusy means the same action is already in flight for the same message.
	KindBusy Kind = "busy"
)

// Error is a classified, user-displayable error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the display message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. The display message is err's own text unless message is set.
func Wrap(kind Kind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Engine wraps an engine failure. Already classified errors pass through unchanged.
func Engine(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Wrap(KindEngine, err, "")
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Display converts err to the string shown to the user. Unclassified errors
// without text fall back to fallback.
func Display(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// HTTPStatus maps a kind to the status code used by the HTTP transport.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindSameLanguage:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusy:
		return http.StatusConflict
	case KindLowConfidence, KindUnsupported, KindEmptyResult:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindEngine:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
