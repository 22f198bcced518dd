//go:build !linux

package siglatch

import (
	"errors"

	"golang.org/x/sys/unix"
)

// errUnsupported is returned by Enter on platforms where
// golang.org/x/sys/unix does not expose a per-thread pthread_sigmask
// (darwin's Sigaction/Sigprocmask are explicitly unimplemented there).
var errUnsupported = errors.New(`siglatch: UninterruptibleScope requires linux`)

// UninterruptibleScope degrades to a no-op placeholder on platforms without
// a pthread_sigmask binding. SignalLatch.Check still performs its
// atomic read-and-reset, just without the additional guarantee that
// the signal cannot be delivered mid-check.
type UninterruptibleScope struct{}

// Enter always fails on this platform; see errUnsupported.
func Enter(signals ...unix.Signal) (*UninterruptibleScope, error) {
	return nil, errUnsupported
}

// Close is a no-op.
func (s *UninterruptibleScope) Close() error { return nil }
