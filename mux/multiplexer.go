package mux

import (
	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/internal/bitset"
	"github.com/dimcore/posixcore/posixlog"
	"github.com/dimcore/posixcore/siglatch"
)

// Multiplexer ties together the five descriptor registration classes and
// the set of signals atomically unblocked for the duration of Wait,
// grounded on diminuto_mux_t.
type Multiplexer struct {
	read      *descriptorSet
	write     *descriptorSet
	accept    *descriptorSet
	urgent    *descriptorSet
	interrupt *descriptorSet

	// signals maps each unblocked-during-Wait signal to the restart flag
	// its latch was installed with: true retries pselect/select on EINTR
	// instead of returning ErrInterrupted for that wakeup.
	signals map[unix.Signal]bool

	logger *posixlog.Logger
}

// New constructs an empty Multiplexer.
func New() *Multiplexer {
	return &Multiplexer{
		read:      newDescriptorSet(),
		write:     newDescriptorSet(),
		accept:    newDescriptorSet(),
		urgent:    newDescriptorSet(),
		interrupt: newDescriptorSet(),
		signals:   make(map[unix.Signal]bool),
	}
}

// SetLogger attaches a logger for DEBUG-level tracing of each Wait call.
func (m *Multiplexer) SetLogger(logger *posixlog.Logger) { m.logger = logger }

// RegisterRead, RegisterWrite, RegisterAccept, RegisterUrgent, and
// RegisterInterrupt activate fd in the named class. A descriptor may be
// active in read+write or write+accept simultaneously, but never in both
// read and accept, nor both urgent and interrupt; callers are responsible
// for honoring that invariant.
func (m *Multiplexer) RegisterRead(fd int) error      { return m.read.register(fd) }
func (m *Multiplexer) RegisterWrite(fd int) error     { return m.write.register(fd) }
func (m *Multiplexer) RegisterAccept(fd int) error    { return m.accept.register(fd) }
func (m *Multiplexer) RegisterUrgent(fd int) error    { return m.urgent.register(fd) }
func (m *Multiplexer) RegisterInterrupt(fd int) error { return m.interrupt.register(fd) }

// UnregisterRead, UnregisterWrite, UnregisterAccept, UnregisterUrgent, and
// UnregisterInterrupt deactivate fd in the named class.
func (m *Multiplexer) UnregisterRead(fd int) error      { return m.read.unregister(fd) }
func (m *Multiplexer) UnregisterWrite(fd int) error     { return m.write.unregister(fd) }
func (m *Multiplexer) UnregisterAccept(fd int) error    { return m.accept.unregister(fd) }
func (m *Multiplexer) UnregisterUrgent(fd int) error    { return m.urgent.unregister(fd) }
func (m *Multiplexer) UnregisterInterrupt(fd int) error { return m.interrupt.unregister(fd) }

// ReadyRead, ReadyWrite, ReadyAccept, ReadyUrgent, and ReadyInterrupt walk
// the named class's round-robin cursor, returning the next ready
// descriptor or -1 once a full lap finds none.
func (m *Multiplexer) ReadyRead() int      { return m.read.next() }
func (m *Multiplexer) ReadyWrite() int     { return m.write.next() }
func (m *Multiplexer) ReadyAccept() int    { return m.accept.next() }
func (m *Multiplexer) ReadyUrgent() int    { return m.urgent.next() }
func (m *Multiplexer) ReadyInterrupt() int { return m.interrupt.next() }

// RegisterSignal adds latch's signal to the set atomically unblocked for
// the duration of Wait. A duplicate registration fails ErrInvalid.
//
// If latch was installed with WithRestartSyscalls(true), Wait retries its
// underlying pselect/select call on EINTR instead of returning
// ErrInterrupted for a wakeup from that signal, approximating SA_RESTART
// via siglatch.Retry.
func (m *Multiplexer) RegisterSignal(latch *siglatch.Latch) error {
	sig := latch.Signal()
	if _, ok := m.signals[sig]; ok {
		return ErrInvalid
	}
	m.signals[sig] = latch.RestartSyscalls()
	return nil
}

// UnregisterSignal removes sig from the unblock-during-wait set. Removing
// an unregistered signal fails ErrInvalid.
func (m *Multiplexer) UnregisterSignal(sig unix.Signal) error {
	if _, ok := m.signals[sig]; !ok {
		return ErrInvalid
	}
	delete(m.signals, sig)
	return nil
}

// Close unregisters fd from every class (ignoring non-membership) and then
// closes it. If no class held fd and the close itself succeeded, Close
// still reports ErrInvalid so callers notice they closed an
// untracked descriptor.
func (m *Multiplexer) Close(fd int) error {
	held := false
	for _, set := range m.sets() {
		if set.active.IsSet(fd) {
			held = true
			_ = set.unregister(fd)
		}
	}
	if err := unix.Close(fd); err != nil {
		return err
	}
	if !held {
		return ErrInvalid
	}
	return nil
}

func (m *Multiplexer) sets() [5]*descriptorSet {
	return [5]*descriptorSet{m.read, m.write, m.accept, m.urgent, m.interrupt}
}

// nfds returns max(every class's max)+1, the bound pselect needs.
func (m *Multiplexer) nfds() int {
	max := mostNegative
	for _, set := range m.sets() {
		if set.max > max {
			max = set.max
		}
	}
	if max < 0 {
		return 0
	}
	return max + 1
}

// anyActive reports whether any descriptor is registered in any class.
func (m *Multiplexer) anyActive() bool {
	for _, set := range m.sets() {
		if !set.active.Empty() {
			return true
		}
	}
	return false
}

// restartOnInterrupt reports whether any registered signal was latched
// with WithRestartSyscalls(true), in which case Wait retries on EINTR
// rather than surfacing ErrInterrupted.
func (m *Multiplexer) restartOnInterrupt() bool {
	for _, restart := range m.signals {
		if restart {
			return true
		}
	}
	return false
}

// Wait blocks (per timeout) until a registered descriptor becomes ready or
// an unblocked signal is delivered, grounded on diminuto_mux_wait. timeout
// in ticks: negative blocks indefinitely, zero polls without blocking,
// positive blocks up to that many ticks.
//
// On success it returns the number of ready descriptors (0 on timeout,
// which is a loop-local condition, not an error) and resets every class's
// round-robin cursor to its min. ErrInterrupted is returned, wrapping
// nothing further, when a registered signal aborted the wait.
func (m *Multiplexer) Wait(timeout clock.Tick) (int, error) {
	if !m.anyActive() && timeout == 0 {
		return 0, nil
	}

	nfds := m.nfds()

	var readBits, exceptBits, writeBits bitset.Set
	bitset.Union(&readBits, &m.read.active, &m.accept.active)
	bitset.Union(&exceptBits, &m.urgent.active, &m.interrupt.active)
	writeBits = m.write.active

	n, err := waitPselect(nfds, &readBits, &writeBits, &exceptBits, timeout, m.signals, m.restartOnInterrupt())
	if m.logger != nil {
		posixlog.Event(m.logger, logiface.LevelDebug, posixlog.CategoryMux, `wait`)
	}
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}

	assignReady(m.read, &readBits)
	assignReady(m.accept, &readBits)
	assignReady(m.write, &writeBits)
	assignReady(m.urgent, &exceptBits)
	assignReady(m.interrupt, &exceptBits)

	for _, set := range m.sets() {
		set.resetCursor()
	}

	return n, nil
}

// assignReady sets set.ready to the intersection of set.active and the
// bitmap pselect returned for its underlying class, overwriting whatever
// was left over from a previous Wait.
func assignReady(set *descriptorSet, returned *bitset.Set) {
	bitset.Intersect(&set.ready, &set.active, returned)
}
