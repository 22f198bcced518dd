package eventloop

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Run once Stop has taken effect, and by
// registration methods called after Stop.
var ErrStopped = errors.New(`eventloop: loop stopped`)

// CallbackError wraps a panic recovered from a registered descriptor
// callback (signal callbacks are not recovered), grounded on the teacher's small-wrapped-error-struct
// pattern (TypeError/RangeError/TimeoutError in errors.go) rather than a
// single stringly-typed sentinel.
type CallbackError struct {
	FD    int
	Cause error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf(`eventloop: callback for fd %d panicked: %v`, e.FD, e.Cause)
}

func (e *CallbackError) Unwrap() error { return e.Cause }
