//go:build linux

package mux

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/internal/bitset"
	"github.com/dimcore/posixcore/siglatch"
)

// waitPselect invokes the real pselect(2) syscall, grounded on
// diminuto_mux_wait's use of pselect to atomically unblock a signal set
// for the duration of the wait. When restartOnInterrupt is set (because a
// registered signal's latch was installed with WithRestartSyscalls(true)),
// a spurious EINTR is retried in place via siglatch.Retry rather than
// surfaced to the caller.
func waitPselect(nfds int, r, w, e *bitset.Set, timeout clock.Tick, signals map[unix.Signal]bool, restartOnInterrupt bool) (int, error) {
	var rfd, wfd, efd unix.FdSet
	setToFdSet(r, &rfd)
	setToFdSet(w, &wfd)
	setToFdSet(e, &efd)

	var mask unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, nil, &mask); err != nil {
		return 0, err
	}
	for sig := range signals {
		sigsetDel(&mask, sig)
	}

	var tsPtr *unix.Timespec
	var ts unix.Timespec
	if timeout >= 0 {
		ts = clock.ToTimespec(timeout)
		tsPtr = &ts
	}

	var n int
	err := siglatch.Retry(restartOnInterrupt, func() error {
		var werr error
		n, werr = unix.Pselect(nfds, &rfd, &wfd, &efd, tsPtr, &mask)
		return werr
	})
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, ErrInterrupted
		}
		return 0, err
	}
	if n <= 0 {
		return n, nil
	}

	fdSetToSet(&rfd, r)
	fdSetToSet(&wfd, w)
	fdSetToSet(&efd, e)
	return n, nil
}

func setToFdSet(s *bitset.Set, fd *unix.FdSet) {
	for i, w := range s.Words() {
		fd.Bits[i] = int64(w)
	}
}

func fdSetToSet(fd *unix.FdSet, s *bitset.Set) {
	var words [16]uint64
	for i, w := range fd.Bits {
		words[i] = uint64(w)
	}
	s.SetWords(words)
}

func sigsetDel(set *unix.Sigset_t, sig unix.Signal) {
	bit := uint(sig) - 1
	set.Val[bit/64] &^= 1 << (bit % 64)
}
