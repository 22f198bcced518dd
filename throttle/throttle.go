package throttle

import (
	"github.com/joeycumines/logiface"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/posixlog"
)

// Throttle is a single GCRA contract: an interarrival increment i and a
// jitter-tolerance limit l, tracking the virtual scheduler's expected
// and actual deficits plus enough history to report edge-triggered
// conformance transitions. The zero value is not usable; construct with
// New.
//
// Grounded on diminuto_throttle_t.
type Throttle struct {
	increment clock.Tick // i: nominal ticks between events
	limit     clock.Tick // l: tolerance, in ticks, for early arrival

	now  clock.Tick
	then clock.Tick

	expected clock.Tick // x: virtual scheduler deficit as of `then`
	actual   clock.Tick // x1: deficit computed by the last Request

	full0, full1, full2    bool
	empty0, empty1, empty2 bool
	alarmed1, alarmed2     bool
}

// New constructs a Throttle with the given increment and limit, reset as
// of now. Grounded on diminuto_throttle_init.
func New(increment, limit clock.Tick, now clock.Tick) *Throttle {
	t := &Throttle{increment: increment, limit: limit}
	t.Reset(now)
	return t
}

// Reset reinitializes t's virtual scheduler state as of now, preserving
// increment and limit. Grounded on diminuto_throttle_reset.
func (t *Throttle) Reset(now clock.Tick) {
	t.now = now
	t.then = now - t.increment
	t.expected = 0
	t.actual = 0
	t.full0, t.full1, t.full2 = false, false, false
	t.empty0, t.empty1, t.empty2 = true, true, true
	t.alarmed1, t.alarmed2 = false, false
}

// Request computes the delay, in ticks, the caller must wait before now
// before the next event would conform to the contract. It updates the
// transient full0/empty0 flags but neither then nor expected; Commit must
// be called afterward to advance the virtual scheduler.
//
// Grounded on diminuto_throttle_request.
func (t *Throttle) Request(now clock.Tick) clock.Tick {
	t.now = now
	elapsed := now - t.then

	var delay clock.Tick
	if t.expected <= elapsed {
		t.actual = 0
		t.full0 = false
		t.empty0 = true
		delay = 0
	} else {
		t.actual = t.expected - elapsed
		if t.actual <= t.limit {
			t.full0 = false
			t.empty0 = false
			delay = 0
		} else {
			t.full0 = true
			t.empty0 = false
			delay = t.actual - t.limit
		}
	}
	return delay
}

// Commit advances the virtual scheduler by n events (each costing one
// increment), shifts the transient flags into history, and updates the
// alarmed state on a fill/empty edge. It returns the current alarmed
// state. Grounded on diminuto_throttle_commitn.
func (t *Throttle) Commit(n uint64) bool {
	t.then = t.now
	t.expected = t.actual + clock.Tick(n)*t.increment

	t.full2, t.full1 = t.full1, t.full0
	t.empty2, t.empty1 = t.empty1, t.empty0
	t.alarmed2 = t.alarmed1

	switch {
	case t.Emptied():
		t.alarmed1 = false
	case t.Filled():
		t.alarmed1 = true
	}
	return t.alarmed1
}

// Admit is Request followed by Commit(n) in one call; the caller promises
// to have already delayed as Request instructed. Grounded on
// diminuto_throttle_admitn.
func (t *Throttle) Admit(now clock.Tick, n uint64) bool {
	t.Request(now)
	return t.Commit(n)
}

// Update moves the virtual scheduler's clock forward to now without
// admitting an event. Grounded on diminuto_throttle_update.
func (t *Throttle) Update(now clock.Tick) bool {
	return t.Admit(now, 0)
}

// IsEmpty reports whether the leaky bucket is, as of the last Commit,
// empty (no backlog against the contract).
func (t *Throttle) IsEmpty() bool { return t.empty1 }

// IsFull reports whether the leaky bucket is, as of the last Commit, full
// (past the jitter-tolerance limit).
func (t *Throttle) IsFull() bool { return t.full1 }

// IsAlarmed reports whether the contract is currently violated.
func (t *Throttle) IsAlarmed() bool { return t.alarmed1 }

// GetExpected returns the virtual scheduler's current expected deficit, x.
func (t *Throttle) GetExpected() clock.Tick { return t.expected }

// Emptied reports whether the bucket transitioned to empty on the last
// Commit.
func (t *Throttle) Emptied() bool { return t.empty1 && !t.empty2 }

// Filled reports whether the bucket transitioned to full on the last
// Commit.
func (t *Throttle) Filled() bool { return t.full1 && !t.full2 }

// Alarmed reports whether the contract transitioned to violated on the
// last Commit.
func (t *Throttle) Alarmed() bool { return t.alarmed1 && !t.alarmed2 }

// Cleared reports whether the contract transitioned to conformant on the
// last Commit.
func (t *Throttle) Cleared() bool { return !t.alarmed1 && t.alarmed2 }

// LogState writes t's full internal state at DEBUG, grounded on
// diminuto_throttle_log.
func (t *Throttle) LogState(logger *posixlog.Logger) {
	if logger == nil {
		return
	}
	logger.Build(logiface.LevelDebug).
		Str(`category`, string(posixlog.CategoryThrottle)).
		Int64(`iat`, int64(t.now-t.then)).
		Int64(`i`, int64(t.increment)).
		Int64(`l`, int64(t.limit)).
		Int64(`x`, int64(t.expected)).
		Int64(`x1`, int64(t.actual)).
		Log(`throttle state`)
}

// InterarrivalTime computes the nominal increment, in ticks, between
// events admitted at numerator events per denominator units, at the given
// clock frequency (ticks per unit). Grounded on
// diminuto_throttle_interarrivaltime: i = ceil(frequency * denominator /
// numerator).
func InterarrivalTime(numerator, denominator uint64, frequency clock.Tick) clock.Tick {
	increment := frequency
	if denominator > 1 {
		increment *= clock.Tick(denominator)
	}
	if numerator > 1 {
		n := clock.Tick(numerator)
		if increment%n > 0 {
			increment = increment/n + 1
		} else {
			increment /= n
		}
	}
	return increment
}

// JitterTolerance computes the limit, in ticks, that tolerates a burst of
// up to maximumBurstSize events at the given increment. Grounded on
// diminuto_throttle_jittertolerance: l = (mbs-1) * i, or 0 if mbs <= 1.
func JitterTolerance(increment clock.Tick, maximumBurstSize uint64) clock.Tick {
	if maximumBurstSize <= 1 {
		return 0
	}
	return clock.Tick(maximumBurstSize-1) * increment
}
