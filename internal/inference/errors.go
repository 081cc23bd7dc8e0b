package inference

import (
	"errors"
	"net/http"
)

// invalidRequestError covers malformed uploads and out-of-range top_k (400).
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string   { return e.msg }
func (e invalidRequestError) StatusCode() int { return http.StatusBadRequest }

// ErrInvalidRequest constructs an invalidRequestError.
func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err should be answered with 400.
func IsInvalidRequest(err error) bool {
	var e invalidRequestError
	return errors.As(err, &e)
}

// imageTooLargeError signals an upload above MaxImageBytes (413).
type imageTooLargeError struct{ limit int64 }

func (e imageTooLargeError) Error() string   { return "image exceeds upload limit" }
func (e imageTooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

// IsImageTooLarge reports whether err indicates an oversized upload.
func IsImageTooLarge(err error) bool {
	var e imageTooLargeError
	return errors.As(err, &e)
}

// modelError wraps a model failure that was not replaced by the fallback.
// unavailable distinguishes timeouts and unreachable backends (503) from
// bad answers (502).
type modelError struct {
	err         error
	unavailable bool
}

func (e modelError) Error() string { return "model failure: " + e.err.Error() }
func (e modelError) Unwrap() error { return e.err }
func (e modelError) StatusCode() int {
	if e.unavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// IsModelUnavailable reports whether the model could not be reached in time.
func IsModelUnavailable(err error) bool {
	var e modelError
	return errors.As(err, &e) && e.unavailable
}

// IsModelFailure reports whether err came from the model backend.
func IsModelFailure(err error) bool {
	var e modelError
	return errors.As(err, &e)
}

// tooBusyError is returned when no model slot frees up within the queue wait (429).
type tooBusyError struct{}

func (tooBusyError) Error() string   { return "too many concurrent predictions; retry later" }
func (tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}
