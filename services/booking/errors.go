package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies booking failures for the HTTP boundary.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindFull         Kind = "full"
	KindForbidden    Kind = "forbidden"
	KindPastDeadline Kind = "past_deadline"
	KindInvalid      Kind = "invalid"
	KindGateway      Kind = "gateway_error"
)

var kindStatus = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindFull:         http.StatusConflict,
	KindForbidden:    http.StatusForbidden,
	KindPastDeadline: http.StatusBadRequest,
	KindInvalid:      http.StatusBadRequest,
	KindGateway:      http.StatusBadGateway,
}

// Error is a booking failure carrying its kind and an HTTP-like status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus satisfies utils.StatusError.
func (e *Error) HTTPStatus() int { return e.Status }

// Is matches any *Error of the same kind, so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Status: kindStatus[kind], Message: msg, Err: err}
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound, Status: http.StatusNotFound}
	ErrFull         = &Error{Kind: KindFull, Status: http.StatusConflict}
	ErrForbidden    = &Error{Kind: KindForbidden, Status: http.StatusForbidden}
	ErrPastDeadline = &Error{Kind: KindPastDeadline, Status: http.StatusBadRequest}
	ErrInvalid      = &Error{Kind: KindInvalid, Status: http.StatusBadRequest}
	ErrGateway      = &Error{Kind: KindGateway, Status: http.StatusBadGateway}
)

func notFound(msg string) error  { return newError(KindNotFound, msg, nil) }
func invalid(msg string) error   { return newError(KindInvalid, msg, nil) }
func forbidden(msg string) error { return newError(KindForbidden, msg, nil) }

// gatewayError passes the processor's error through untouched as the cause.
func gatewayError(err error) error {
	return newError(KindGateway, "payment processor error", err)
}
