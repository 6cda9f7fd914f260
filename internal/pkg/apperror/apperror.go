package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindNotFound            Kind = "NOT_FOUND"
	KindGateNotMet          Kind = "GATE_NOT_MET"
	KindUpstreamMalformed   Kind = "UPSTREAM_MALFORMED"
	KindUpstreamThrottled   Kind = "UPSTREAM_THROTTLED"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindAnchorNotFound      Kind = "ANCHOR_NOT_FOUND"
	KindInvalidSpan         Kind = "INVALID_SPAN"
	KindInternal            Kind = "INTERNAL"
)

// Error carries a stable machine-readable Kind next to the human message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *Error { return New(KindInvalidInput, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func GateNotMet(message string) *Error { return New(KindGateNotMet, message) }

func UpstreamMalformed(message string, err error) *Error {
	return Wrap(KindUpstreamMalformed, message, err)
}

func UpstreamThrottled(message string, err error) *Error {
	return Wrap(KindUpstreamThrottled, message, err)
}

func UpstreamUnavailable(message string, err error) *Error {
	return Wrap(KindUpstreamUnavailable, message, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the human message of err's *Error, or fallback.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
