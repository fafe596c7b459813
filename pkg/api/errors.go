package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned by operations that need stored tokens when
// none are available.
var ErrNotAuthenticated = errors.New("not authenticated")

// TransportError is a network or HTTP failure talking to the backend.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	msg := e.Op + ": "
	if e.Status > 0 {
		msg += fmt.Sprintf("HTTP error! status: %d", e.Status)
		if e.Message != "" {
			msg += " (" + e.Message + ")"
		}
		return msg
	}
	if e.Message != "" {
		msg += e.Message
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
	if e.Err != nil {
		return msg + e.Err.Error()
	}
	return msg + "transport failure"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the backend rejected the credentials.
func (e *TransportError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsStatus reports whether err is a TransportError with the given status.
func IsStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}
