package clock

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Tick is a signed count of some monotonic clock running at Frequency ticks
// per second. Negative ticks are meaningful only as a relative duration
// (e.g. a "wait indefinitely" sentinel to mux.Multiplexer.Wait), never as
// an absolute timestamp.
type Tick int64

// Frequency is the number of Ticks per second this process's clock runs at.
// It is fixed for the lifetime of the process: every Tick value produced by
// Now is comparable to every other, and to values built by ToTicks, without
// reconciling units.
//
// A nanosecond tick rate is chosen to match CLOCK_MONOTONIC's native
// resolution on Linux and Darwin, avoiding any lossy conversion between
// what the kernel reports and what this package returns.
const Frequency Tick = 1_000_000_000

// clockID is overridable in tests so Now can be driven deterministically.
var clockID int32 = unix.CLOCK_MONOTONIC

// calls counts invocations of Now, for diagnostics only; it has no effect
// on the returned value.
var calls atomic.Uint64

// Now returns the current monotonic tick count. It is non-decreasing across
// calls within a process, per clockID.
//
// Now is NOT safe to call from within a signal handler: the underlying
// clock_gettime call is not guaranteed async-signal-safe on every platform
// this module targets, so callers must treat it as unsafe even where the
// libc implementation happens to be safe.
func Now() Tick {
	calls.Add(1)
	var ts unix.Timespec
	if err := unix.ClockGettime(clockID, &ts); err != nil {
		// CLOCK_MONOTONIC failing is a kernel/libc invariant violation this
		// module cannot recover from sanely; every caller assumes Now never
		// fails.
		panic("clock: ClockGettime: " + err.Error())
	}
	return Tick(ts.Sec)*Frequency + Tick(ts.Nsec)
}

// ToTicks converts a duration expressed as (wholeUnits, fractionalUnits) at
// unitsPerSecond resolution into a Tick count, without floating point.
// For example ToTicks(2, 500, 1000) is two and a half seconds.
func ToTicks(wholeUnits, fractionalUnits, unitsPerSecond int64) Tick {
	ticks := Tick(wholeUnits) * Frequency
	if fractionalUnits != 0 {
		ticks += Tick(fractionalUnits) * Frequency / Tick(unitsPerSecond)
	}
	return ticks
}

// FromTicks decomposes a Tick count into (wholeUnits, fractionalUnits) at
// unitsPerSecond resolution.
func FromTicks(ticks Tick, unitsPerSecond int64) (wholeUnits, fractionalUnits int64) {
	wholeUnits = int64(ticks / Frequency)
	remainder := ticks % Frequency
	fractionalUnits = int64(remainder) * unitsPerSecond / int64(Frequency)
	return
}

// ToTimespec renders ticks as a unix.Timespec suitable for pselect/ppoll
// style timeouts. Negative ticks are clamped to zero; callers are expected
// to treat negative as "block indefinitely" before calling this.
func ToTimespec(ticks Tick) unix.Timespec {
	if ticks < 0 {
		ticks = 0
	}
	sec := int64(ticks / Frequency)
	nsec := int64(ticks % Frequency)
	return unix.NsecToTimespec(sec*1_000_000_000 + nsec)
}
