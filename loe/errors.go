package loe

import (
	"errors"
	"fmt"
)

// TransportError indicates a network failure or a non-success HTTP status.
type TransportError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError checks if an error is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FormatError indicates the API payload is not JSON or lacks the expected
// collection field.
type FormatError struct {
	Err    error
	Reason string
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected API payload: %s: %v", e.Reason, e.Err)
	}
	return "unexpected API payload: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError checks if an error is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// NotFoundError indicates that no entry in the payload carried a usable HTML
// fragment after both search passes.
type NotFoundError struct{}

func (*NotFoundError) Error() string {
	return "no schedule fragment found in API response"
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
