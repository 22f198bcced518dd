package mux

import (
	"errors"
	"fmt"
)

// Sentinel errors, grounded on the error kind table of spec.md §7.
var (
	// ErrRange is wrapped by RangeError; present so callers can match on it
	// with errors.Is without caring about the offending descriptor.
	ErrRange = errors.New(`mux: descriptor out of range`)
	// ErrInvalid reports a double-registration, an unregister of a
	// descriptor or signal that was never registered, or a close of a
	// descriptor this Multiplexer was not tracking.
	ErrInvalid = errors.New(`mux: invalid registration state`)
	// ErrInterrupted reports that Wait observed a delivered, registered
	// signal instead of descriptor readiness or a timeout.
	ErrInterrupted = errors.New(`mux: wait interrupted by signal`)
)

// RangeError reports that fd fell outside [0, bitset.Size).
type RangeError struct {
	FD int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf(`mux: descriptor %d out of range`, e.FD)
}

func (e *RangeError) Unwrap() error { return ErrRange }
