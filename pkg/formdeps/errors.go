package formdeps

import (
	"errors"
	"fmt"
)

// InvalidResponseNotice is shown for every failure that is not an
// ApplicationError.
const InvalidResponseNotice = "invalid server response"

// ApplicationError is a successful response carrying an error payload. Its
// message is shown to the user verbatim.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }

// TransportError is a request that failed outright, returned a non-2xx
// status, or returned a body that could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Notice returns the user-visible text for err.
func Notice(err error) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return InvalidResponseNotice
}
