package mux

import (
	"math"

	"github.com/dimcore/posixcore/internal/bitset"
)

// mostPositive and mostNegative are the empty-state sentinels for a
// descriptorSet's min/max, grounded on spec.md §4.7's "On hosts where the
// underlying bitmap primitive limits descriptor indices, the mux uses
// bounded-integer sentinels for min (MOST_POSITIVE) and max (MOST_NEGATIVE)
// in the empty state" note: any legal descriptor compares below
// mostPositive and above mostNegative, so the very first registration
// always narrows both bounds correctly.
const (
	mostPositive = math.MaxInt
	mostNegative = math.MinInt
)

// descriptorSet is one of the five independent registration classes (read,
// write, accept, urgent, interrupt) a Multiplexer maintains, grounded on
// diminuto_mux_t's per-set min/max/cursor/active/ready fields.
type descriptorSet struct {
	active bitset.Set
	ready  bitset.Set
	min    int
	max    int
	cursor int
}

func newDescriptorSet() *descriptorSet {
	return &descriptorSet{min: mostPositive, max: mostNegative, cursor: -1}
}

// register activates fd in this set, grounded on diminuto_mux_register.
func (d *descriptorSet) register(fd int) error {
	if !bitset.InRange(fd) {
		return &RangeError{FD: fd}
	}
	if d.active.IsSet(fd) {
		return ErrInvalid
	}
	d.active.Set(fd)
	d.ready.Clear(fd)
	if fd < d.min {
		d.min = fd
	}
	if fd > d.max {
		d.max = fd
	}
	if d.cursor < 0 {
		d.cursor = d.min
	}
	return nil
}

// unregister deactivates fd, recomputes min/max, and renormalizes cursor,
// grounded on diminuto_mux_unregister.
func (d *descriptorSet) unregister(fd int) error {
	if !bitset.InRange(fd) || !d.active.IsSet(fd) {
		return ErrInvalid
	}
	d.active.Clear(fd)
	d.ready.Clear(fd)
	if d.active.Empty() {
		d.min, d.max, d.cursor = mostPositive, mostNegative, -1
		return nil
	}
	d.min = d.active.Min()
	d.max = d.active.Max()
	if d.cursor < d.min || d.cursor > d.max {
		d.cursor = d.min
	}
	return nil
}

// next performs one round-robin readiness step, grounded on
// diminuto_mux_ready_*: walk [min, max] starting at cursor, returning the
// first descriptor set in both active and ready, clearing its ready bit
// and leaving cursor just past it (wrapping max+1 to min). Returns -1 once
// a full lap finds nothing.
func (d *descriptorSet) next() int {
	if d.cursor < 0 {
		return -1
	}
	span := d.max - d.min + 1
	for i := 0; i < span; i++ {
		fd := d.cursor
		d.cursor++
		if d.cursor > d.max {
			d.cursor = d.min
		}
		if d.active.IsSet(fd) && d.ready.IsSet(fd) {
			d.ready.Clear(fd)
			return fd
		}
	}
	return -1
}

// resetCursor is called after a successful Wait: every set's cursor
// restarts at its min so round-robin iteration begins from the bottom of
// the active range each time new readiness is observed.
func (d *descriptorSet) resetCursor() {
	if d.active.Empty() {
		d.cursor = -1
	} else {
		d.cursor = d.min
	}
}
