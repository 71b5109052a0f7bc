package irrecoverable

import (
	"fmt"
)

// exception wraps an error to strip its type information, so that callers
// performing sentinel checks with errors.Is or errors.As treat it as an
// unexpected exception rather than one of their documented error returns.
type exception struct {
	err error
}

func (e exception) Error() string {
	return "exception! " + e.err.Error()
}

// NewExceptionf wraps a formatted error as an exception, blocking any
// further unwrapping.
func NewExceptionf(msg string, args ...interface{}) error {
	return exception{err: fmt.Errorf(msg, args...)}
}
