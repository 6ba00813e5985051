package client

import (
	"errors"
	"fmt"
	"net/url"
)

// StatusError is a response with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// TransportError is a failure before any HTTP response was received:
// refused connections, DNS, TLS, timeouts and cancellation. The request URL
// is never part of the message.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body was not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a *StatusError, returning it.
func IsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// stripURL drops the *url.Error wrapper so query-string credentials never
// reach logs or the display.
func stripURL(err error) error {
	var ue *url.Error
	for errors.As(err, &ue) {
		err = ue.Err
	}
	return err
}
