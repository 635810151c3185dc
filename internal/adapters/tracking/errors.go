package tracking

import (
	"errors"
	"fmt"
)

// Sentinel kinds for tracking client errors.
var (
	ErrRequest = errors.New("tracking request failed")
	ErrStatus  = errors.New("tracking server returned error status")
	ErrDecode  = errors.New("tracking response decode failed")
)

// statusError carries the HTTP status and the server's error code so callers
// can branch on well-known conditions via errors.Is.
type statusError struct {
	status  int
	code    string
	message string
}

func (e *statusError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("tracking server: %d %s: %s", e.status, e.code, e.message)
	}
	return fmt.Sprintf("tracking server: %d: %s", e.status, e.message)
}

func (e *statusError) Is(target error) bool {
	return target == ErrStatus
}

// isErrorCode reports whether err is a server error with the given code.
func isErrorCode(err error, code string) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == code
	}
	return false
}
