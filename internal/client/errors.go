package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork wraps transport failures and unreadable replies.
	ErrNetwork = errors.New("network error")
	// ErrNoSession is returned when a call needs a signed-in user.
	ErrNoSession = errors.New("not signed in")
	// ErrNoLocation is returned when a call needs the device location.
	ErrNoLocation = errors.New("location unknown")
)

// StatusError is a reply the backend rejected. Message comes from the
// {"error": ...} body when there is one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
