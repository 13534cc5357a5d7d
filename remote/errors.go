package remote

import (
	"errors"
	"fmt"
)

// ErrRemoteFailed matches every error returned by the client, whether the
// request failed in transport or the server answered with a non-2xx status.
var ErrRemoteFailed = errors.New("remote operation failed")

// Error describes a failed remote call.
type Error struct {
	Op     string
	Method string
	Path   string
	Status int // zero when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s %s: status %d", e.Op, e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrRemoteFailed for every remote error.
func (e *Error) Is(target error) bool { return target == ErrRemoteFailed }
