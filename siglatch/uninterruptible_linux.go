//go:build linux

package siglatch

import (
	"golang.org/x/sys/unix"
)

// UninterruptibleScope is a scoped acquisition of the calling OS thread's
// signal mask, grounded on diminuto_uninterruptiblesection_block/_cleanup.
// Entering the scope ORs the given signals into the thread's block mask;
// Close restores the mask to exactly what it was before Enter, regardless
// of which signals were pending or delivered during the scope.
//
// Scopes nest correctly only when each Close is paired with its own Enter
// in strict LIFO order, matching pthread_sigmask's save/restore semantics;
// nothing in this type enforces that order, so callers must use defer.
//
// Enter pins no goroutine to its OS thread itself; a caller that cares
// which thread's mask it is changing (SignalLatch.Check does not, since any
// thread observing the mask change is fine for a process-global counter)
// must bracket the scope with runtime.LockOSThread/UnlockOSThread.
type UninterruptibleScope struct {
	saved unix.Sigset_t
}

// Enter blocks the given signals on the calling OS thread and returns a
// scope that, on Close, restores the prior mask.
func Enter(signals ...unix.Signal) (*UninterruptibleScope, error) {
	var set unix.Sigset_t
	for _, s := range signals {
		sigsetAdd(&set, s)
	}
	var scope UninterruptibleScope
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &scope.saved); err != nil {
		return nil, err
	}
	return &scope, nil
}

// Close restores the signal mask captured by Enter. Calling Close more than
// once re-applies the same saved mask; that is harmless but redundant.
func (s *UninterruptibleScope) Close() error {
	if s == nil {
		return nil
	}
	return unix.PthreadSigmask(unix.SIG_SETMASK, &s.saved, nil)
}

// sigsetAdd sets bit (sig-1) in set, matching sigaddset's bit numbering.
// unix.Sigset_t on linux/amd64 is a [16]uint64 bitmap (1024 signal slots),
// far more than the six signals this package ever latches.
func sigsetAdd(set *unix.Sigset_t, sig unix.Signal) {
	bit := uint(sig) - 1
	word := bit / 64
	set.Val[word] |= 1 << (bit % 64)
}
