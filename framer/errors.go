package framer

import "errors"

// ErrTooBig is returned by Write when the caller's payload exceeds
// MaxPayload, grounded on diminuto_framer_writer's length check.
var ErrTooBig = errors.New(`framer: payload exceeds MaxPayload`)

// StateError reports that a frame was rejected in a particular terminal
// state (ABORT, FAILED, OVERFLOW, or INVALID), grounded on the negative
// return paths of diminuto_framer_read.
type StateError struct {
	State State
}

func (e *StateError) Error() string {
	return `framer: frame rejected in state ` + e.State.String()
}
