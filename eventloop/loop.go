package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/mux"
	"github.com/dimcore/posixcore/posixlog"
	"github.com/dimcore/posixcore/siglatch"
)

// readyFunc handles one ready descriptor.
type readyFunc func(fd int)

// signalWatch pairs a latch with the callback invoked once per Run
// iteration that finds its saturating counter non-zero.
type signalWatch struct {
	latch *siglatch.Latch
	fn    func(count int32)
}

// Loop drives a mux.Multiplexer, dispatching ready descriptors and
// delivered signals to callbacks registered ahead of Run, adapted from the
// teacher's Loop (there: timers and promise microtasks; here: descriptors
// and signal latches).
type Loop struct {
	mux         *mux.Multiplexer
	logger      *posixlog.Logger
	pollTimeout clock.Tick

	onRead   map[int]readyFunc
	onWrite  map[int]readyFunc
	onAccept map[int]readyFunc

	signals []signalWatch

	stopped atomic.Bool
}

// New constructs a Loop with its own Multiplexer.
func New(opts ...LoopOption) *Loop {
	cfg := resolveLoopOptions(opts)
	return &Loop{
		mux:         mux.New(),
		logger:      cfg.logger,
		pollTimeout: cfg.pollTimeout,
		onRead:      make(map[int]readyFunc),
		onWrite:     make(map[int]readyFunc),
		onAccept:    make(map[int]readyFunc),
	}
}

// OnReadable registers fd for readability and the callback invoked once
// per Run iteration it's found ready.
func (l *Loop) OnReadable(fd int, fn func(fd int)) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	if err := l.mux.RegisterRead(fd); err != nil {
		return err
	}
	l.onRead[fd] = fn
	return nil
}

// OnWritable registers fd for writability.
func (l *Loop) OnWritable(fd int, fn func(fd int)) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	if err := l.mux.RegisterWrite(fd); err != nil {
		return err
	}
	l.onWrite[fd] = fn
	return nil
}

// OnAcceptable registers fd for incoming-connection readiness.
func (l *Loop) OnAcceptable(fd int, fn func(fd int)) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	if err := l.mux.RegisterAccept(fd); err != nil {
		return err
	}
	l.onAccept[fd] = fn
	return nil
}

// RemoveReadable, RemoveWritable, and RemoveAcceptable undo the
// corresponding OnXxx registration.
func (l *Loop) RemoveReadable(fd int) error {
	if err := l.mux.UnregisterRead(fd); err != nil {
		return err
	}
	delete(l.onRead, fd)
	return nil
}

func (l *Loop) RemoveWritable(fd int) error {
	if err := l.mux.UnregisterWrite(fd); err != nil {
		return err
	}
	delete(l.onWrite, fd)
	return nil
}

func (l *Loop) RemoveAcceptable(fd int) error {
	if err := l.mux.UnregisterAccept(fd); err != nil {
		return err
	}
	delete(l.onAccept, fd)
	return nil
}

// WatchSignal registers latch's signal with the underlying Multiplexer (so
// Wait is interrupted on delivery) and arranges for fn to run, with the
// saturating count since the last check, once per Run iteration the count
// is non-zero.
func (l *Loop) WatchSignal(latch *siglatch.Latch, fn func(count int32)) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	if err := l.mux.RegisterSignal(latch); err != nil {
		return err
	}
	l.signals = append(l.signals, signalWatch{latch: latch, fn: fn})
	return nil
}

// Stop requests that Run return ErrStopped at its next iteration boundary.
func (l *Loop) Stop() { l.stopped.Store(true) }

// Multiplexer exposes the Loop's underlying Multiplexer, for callers that
// need Close or a registration class Run does not wrap.
func (l *Loop) Multiplexer() *mux.Multiplexer { return l.mux }

// Run drives the loop until ctx is canceled or Stop is called, returning
// the triggering error (context.Canceled, context.DeadlineExceeded, or
// ErrStopped). Any other error from Multiplexer.Wait is surfaced
// immediately, per spec.md §7's policy that IO errors are not local.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.stopped.Load() {
			return ErrStopped
		}

		n, err := l.mux.Wait(l.pollTimeout)
		if err != nil {
			if errors.Is(err, mux.ErrInterrupted) {
				l.pollSignals()
				continue
			}
			return err
		}

		l.pollSignals()

		if n == 0 {
			continue
		}

		l.dispatch(l.onRead, l.mux.ReadyRead)
		l.dispatch(l.onAccept, l.mux.ReadyAccept)
		l.dispatch(l.onWrite, l.mux.ReadyWrite)
	}
}

func (l *Loop) pollSignals() {
	for _, w := range l.signals {
		if count := w.latch.Check(); count > 0 {
			w.fn(count)
		}
	}
}

func (l *Loop) dispatch(callbacks map[int]readyFunc, next func() int) {
	for {
		fd := next()
		if fd < 0 {
			return
		}
		if fn, ok := callbacks[fd]; ok {
			l.invoke(fd, fn)
		}
	}
}

// invoke runs fn, recovering a panic into a logged CallbackError so one
// misbehaving callback cannot take down the whole loop.
func (l *Loop) invoke(fd int, fn readyFunc) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cause, ok := r.(error)
		if !ok {
			cause = fmt.Errorf(`%v`, r)
		}
		if l.logger != nil {
			posixlog.EventErr(l.logger, logiface.LevelError, posixlog.CategoryEventloop, &CallbackError{FD: fd, Cause: cause}, `callback panic recovered`)
		}
	}()
	fn(fd)
}
