package siglatch

import (
	"errors"
	"math"
	"os"
	gosignal "os/signal"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/posixlog"
)

// ErrAlreadyInstalled is returned by Install when the latch already has a
// handler running.
var ErrAlreadyInstalled = errors.New(`siglatch: already installed`)

// ErrNotInstalled is returned by Uninstall when the latch is not installed.
var ErrNotInstalled = errors.New(`siglatch: not installed`)

// Latch is a one-shot, saturating counter for exactly one signal, grounded
// on diminuto_alarm's (signaled, mutex) pair generalized to any of
// TERM, HUP, INT, ALRM, CHLD, PIPE.
//
// Delivery of the signal increments the counter, saturating at
// math.MaxInt32 rather than wrapping. Check is the only operation that
// resets it, and does so atomically with respect to further delivery.
//
// A Latch is safe for concurrent use by multiple goroutines, but — like the
// process-wide signal disposition it wraps — there is exactly one
// disposition per signal number per process; installing two Latches for the
// same signal races os/signal's registration and is a programming error.
type Latch struct {
	sig    unix.Signal
	logger *posixlog.Logger

	mu        sync.Mutex
	count     atomic.Int32
	installed bool
	notifyCh  chan os.Signal
	done      chan struct{}

	restartSyscalls bool
	verbose         bool
}

// New returns an uninstalled Latch for sig. sig must be one of the signals
// this package supports install handling for; New itself does no
// validation, since it performs no syscalls.
func New(sig unix.Signal) *Latch {
	return &Latch{sig: sig}
}

// Signal returns the signal this latch tracks.
func (l *Latch) Signal() unix.Signal { return l.sig }

// InstallOption configures Install.
type InstallOption interface{ apply(*Latch) }

type installOptionFunc func(*Latch)

func (f installOptionFunc) apply(l *Latch) { f(l) }

// WithRestartSyscalls records whether slow system calls interrupted by this
// signal should be transparently retried by callers, mirroring the
// restart_syscalls argument to diminuto_alarm_install's SA_RESTART flag.
// Go's os/signal model cannot set SA_RESTART directly (no cgo handler is
// installed); RestartSyscalls reports this flag back to callers such as
// mux.Multiplexer.Wait, which retries its own blocking syscall on EINTR
// when it is set.
func WithRestartSyscalls(restart bool) InstallOption {
	return installOptionFunc(func(l *Latch) { l.restartSyscalls = restart })
}

// WithVerbose enables a DEBUG-level posixlog entry on every delivery and on
// install/uninstall, mirroring Diminuto's per-signal _debug globals without
// a process-global mutable flag.
func WithVerbose(logger *posixlog.Logger) InstallOption {
	return installOptionFunc(func(l *Latch) {
		l.verbose = true
		l.logger = logger
	})
}

// RestartSyscalls reports the flag last passed to Install via
// WithRestartSyscalls (false if never set, or if not installed).
func (l *Latch) RestartSyscalls() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.installed && l.restartSyscalls
}

// Install registers this process's disposition for the latch's signal: a
// background goroutine receives deliveries via os/signal and saturates the
// counter. It is an error to Install a Latch that is already installed.
func (l *Latch) Install(opts ...InstallOption) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.installed {
		return ErrAlreadyInstalled
	}
	for _, opt := range opts {
		opt.apply(l)
	}

	ch := make(chan os.Signal, 1)
	gosignal.Notify(ch, os.Signal(l.sig))
	done := make(chan struct{})
	l.notifyCh = ch
	l.done = done
	l.installed = true

	go l.run(ch, done)

	if l.verbose {
		posixlog.Event(l.logger, logiface.LevelDebug, posixlog.CategorySiglatch, `installed`)
	}
	return nil
}

func (l *Latch) run(ch chan os.Signal, done chan struct{}) {
	for {
		select {
		case <-ch:
			l.increment()
			if l.verbose {
				posixlog.Event(l.logger, logiface.LevelDebug, posixlog.CategorySiglatch, `delivered`)
			}
		case <-done:
			return
		}
	}
}

// increment performs the saturating counter bump a delivery applies,
// grounded on diminuto_alarm_handler's MAXIMUM-guarded increment.
func (l *Latch) increment() {
	const maximum = math.MaxInt32
	for {
		cur := l.count.Load()
		if cur >= maximum {
			return
		}
		if l.count.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// Uninstall stops the background goroutine and resets the process signal
// disposition for this signal to its default. The counter is left as-is;
// a subsequent Check after Uninstall still observes whatever accumulated.
func (l *Latch) Uninstall() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.installed {
		return ErrNotInstalled
	}
	gosignal.Stop(l.notifyCh)
	close(l.done)
	l.installed = false
	if l.verbose {
		posixlog.Event(l.logger, logiface.LevelDebug, posixlog.CategorySiglatch, `uninstalled`)
	}
	return nil
}

// Send delivers this latch's signal to pid, grounded on
// diminuto_alarm_signal's kill(2) call.
func (l *Latch) Send(pid int) error {
	return unix.Kill(pid, l.sig)
}

// Check atomically returns the current counter and resets it to zero,
// grounded on diminuto_alarm_check's critical-section + uninterruptible-
// section composition. The swap itself is already atomic via the counter's
// own atomic.Int32; the UninterruptibleScope additionally prevents the
// kernel from delivering this signal to the process during the swap, on
// platforms where that scope is supported.
func (l *Latch) Check() int32 {
	scope, err := Enter(l.sig)
	if err == nil {
		defer scope.Close()
	}
	v := l.count.Swap(0)
	if l.verbose && v != 0 {
		posixlog.Event(l.logger, logiface.LevelDebug, posixlog.CategorySiglatch, `checked`)
	}
	return v
}
