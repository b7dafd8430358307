package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConflict marks a 409 from the backend; the annotation upload path
// falls back to a patch when it sees one.
var ErrConflict = errors.New("backend conflict")

// StatusError carries a non-2xx backend response. The transport layer
// passes 400/401/403/404/409 through to the device and collapses
// everything else to a 500.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Is makes a 409 StatusError match ErrConflict.
func (e *StatusError) Is(target error) bool {
	return target == ErrConflict && e.Code == http.StatusConflict
}

// statusError converts a non-2xx response code into an error.
func statusError(code int) error {
	return &StatusError{Code: code}
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
