package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure classes produced by the fetch pipeline.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindRequestThrottled
	KindInvalidResponse
	KindHTTPError
	KindDecodeFailed
	KindMaxRetryExceeded
	KindConfiguration
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRequestThrottled:
		return "request_throttled"
	case KindInvalidResponse:
		return "invalid_response"
	case KindHTTPError:
		return "http_error"
	case KindDecodeFailed:
		return "decode_failed"
	case KindMaxRetryExceeded:
		return "max_retry_exceeded"
	case KindConfiguration:
		return "configuration_error"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// ErrThrottled is matched by errors.Is for any FetchError of KindRequestThrottled.
var ErrThrottled = errors.New("request throttled")

// FetchError is a classified failure from the fetch pipeline.
type FetchError struct {
	Kind     ErrorKind
	Status   int // HTTP status for KindHTTPError
	Attempts int // attempts made for KindMaxRetryExceeded
	Err      error
}

func (e *FetchError) Error() string {
	var s string
	switch e.Kind {
	case KindHTTPError:
		s = fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	case KindMaxRetryExceeded:
		s = fmt.Sprintf("%s: %d attempts", e.Kind, e.Attempts)
	default:
		s = e.Kind.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrThrottled && e.Kind == KindRequestThrottled
}

// Message returns a human-readable description suitable for end users.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindRequestThrottled:
		return "A request is already in progress. Please try again shortly."
	case KindInvalidResponse:
		return "The server returned an invalid response."
	case KindHTTPError:
		if text := http.StatusText(e.Status); text != "" {
			return fmt.Sprintf("The server responded with an error (%d %s).", e.Status, text)
		}
		return fmt.Sprintf("The server responded with an error (%d).", e.Status)
	case KindDecodeFailed:
		return "The recipe data could not be read."
	case KindMaxRetryExceeded:
		return fmt.Sprintf("Unable to load recipes after %d attempts.", e.Attempts)
	case KindConfiguration:
		return "The recipe endpoint is misconfigured."
	default:
		return "A network error occurred. Please check your connection."
	}
}

// NewFetchError builds a FetchError of the given kind wrapping err.
func NewFetchError(kind ErrorKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

// KindOf returns the kind of err, or KindNone when err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}
