package siglatch

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Retry approximates SA_RESTART for callers of blocking syscalls that
// cannot install a real C-level signal handler (no cgo is used anywhere in
// this module). If restartSyscalls is true, fn is retried whenever it
// returns unix.EINTR; if false, EINTR is returned to the caller unchanged,
// matching a signal installed without SA_RESTART.
func Retry(restartSyscalls bool, fn func() error) error {
	for {
		err := fn()
		if err == nil || !restartSyscalls || !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
