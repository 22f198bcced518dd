//go:build darwin

package mux

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/internal/bitset"
	"github.com/dimcore/posixcore/siglatch"
)

// waitPselect falls back to select(2) on Darwin: golang.org/x/sys/unix does
// not expose pselect, PthreadSigmask, or Sigset_t for this platform (see
// siglatch's equivalent gap), so the atomic signal-unblock-for-the-wait
// guarantee diminuto_mux_wait relies on cannot be reproduced exactly here.
// Registered signals are accepted for API parity but are not specially
// unblocked; a delivered signal still interrupts the underlying select
// with EINTR, which is surfaced as ErrInterrupted the same as on Linux,
// just without the atomicity guarantee against races outside the call.
// restartOnInterrupt still applies: if set, a spurious EINTR is retried in
// place via siglatch.Retry instead of being surfaced.
func waitPselect(nfds int, r, w, e *bitset.Set, timeout clock.Tick, _ map[unix.Signal]bool, restartOnInterrupt bool) (int, error) {
	var rfd, wfd, efd unix.FdSet
	setToFdSet(r, &rfd)
	setToFdSet(w, &wfd)
	setToFdSet(e, &efd)

	var tvPtr *unix.Timeval
	var tv unix.Timeval
	if timeout >= 0 {
		sec, nsec := clock.FromTicks(timeout, 1_000_000_000)
		tv = unix.NsecToTimeval(sec*1_000_000_000 + nsec)
		tvPtr = &tv
	}

	var n int
	err := siglatch.Retry(restartOnInterrupt, func() error {
		var werr error
		n, werr = unix.Select(nfds, &rfd, &wfd, &efd, tvPtr)
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
	words := s.Words()
	for i := range fd.Bits {
		lo := words[i/2]
		if i%2 == 1 {
			lo >>= 32
		}
		fd.Bits[i] = int32(uint32(lo))
	}
}

func fdSetToSet(fd *unix.FdSet, s *bitset.Set) {
	var words [16]uint64
	for i, v := range fd.Bits {
		shifted := uint64(uint32(v))
		if i%2 == 1 {
			shifted <<= 32
		}
		words[i/2] |= shifted
	}
	s.SetWords(words)
}
