package shaper

import (
	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/posixlog"
	"github.com/dimcore/posixcore/throttle"
)

// Shaper composes a peak throttle.Throttle and a sustained throttle.Throttle
// into one traffic shaper. A stream conforms only when both contracts are
// satisfied; it is alarmed if either is violated. Grounded on
// diminuto_shaper_t.
type Shaper struct {
	peak      *throttle.Throttle
	sustained *throttle.Throttle
}

// New constructs a Shaper from already-parameterized peak and sustained
// contracts. Use BurstTolerance to derive the sustained contract's limit
// from the peak contract's parameters. Grounded on diminuto_shaper_init.
func New(peakIncrement, jitterTolerance, sustainedIncrement, burstTolerance clock.Tick, now clock.Tick) *Shaper {
	return &Shaper{
		peak:      throttle.New(peakIncrement, jitterTolerance, now),
		sustained: throttle.New(sustainedIncrement, burstTolerance, now),
	}
}

// Reset reinitializes both contracts as of now, preserving their
// increments and limits. Grounded on diminuto_shaper_reset.
func (s *Shaper) Reset(now clock.Tick) {
	s.peak.Reset(now)
	s.sustained.Reset(now)
}

// Request returns the larger of the two contracts' requested delays.
// Grounded on diminuto_shaper_request.
func (s *Shaper) Request(now clock.Tick) clock.Tick {
	peakDelay := s.peak.Request(now)
	sustainedDelay := s.sustained.Request(now)
	if peakDelay > sustainedDelay {
		return peakDelay
	}
	return sustainedDelay
}

// Commit advances both contracts by n events; both are unconditionally
// committed regardless of which is alarmed. It returns whether either
// contract is now alarmed. Grounded on diminuto_shaper_commitn.
func (s *Shaper) Commit(n uint64) bool {
	peakAlarmed := s.peak.Commit(n)
	sustainedAlarmed := s.sustained.Commit(n)
	return peakAlarmed || sustainedAlarmed
}

// Admit is Request followed by Commit(n) in one call. Grounded on
// diminuto_shaper_admitn.
func (s *Shaper) Admit(now clock.Tick, n uint64) bool {
	s.Request(now)
	return s.Commit(n)
}

// GetExpected returns the larger of the two contracts' expected deficits.
func (s *Shaper) GetExpected() clock.Tick {
	peakExpected := s.peak.GetExpected()
	sustainedExpected := s.sustained.GetExpected()
	if peakExpected > sustainedExpected {
		return peakExpected
	}
	return sustainedExpected
}

// IsEmpty reports whether both contracts are empty.
func (s *Shaper) IsEmpty() bool { return s.peak.IsEmpty() && s.sustained.IsEmpty() }

// IsFull reports whether either contract is full.
func (s *Shaper) IsFull() bool { return s.peak.IsFull() || s.sustained.IsFull() }

// IsAlarmed reports whether either contract is currently alarmed.
func (s *Shaper) IsAlarmed() bool { return s.peak.IsAlarmed() || s.sustained.IsAlarmed() }

// Emptied reports whether either contract transitioned to empty on the
// last Commit.
func (s *Shaper) Emptied() bool { return s.peak.Emptied() || s.sustained.Emptied() }

// Filled reports whether either contract transitioned to full on the last
// Commit.
func (s *Shaper) Filled() bool { return s.peak.Filled() || s.sustained.Filled() }

// Alarmed reports whether either contract transitioned to violated on the
// last Commit.
func (s *Shaper) Alarmed() bool { return s.peak.Alarmed() || s.sustained.Alarmed() }

// Cleared reports whether either contract transitioned to conformant on
// the last Commit.
func (s *Shaper) Cleared() bool { return s.peak.Cleared() || s.sustained.Cleared() }

// LogState writes both contracts' internal state at DEBUG, grounded on
// diminuto_shaper_log.
func (s *Shaper) LogState(logger *posixlog.Logger) {
	s.peak.LogState(logger)
	s.sustained.LogState(logger)
}

// BurstTolerance derives the sustained contract's limit from the peak
// contract's increment and jitter tolerance plus the sustained contract's
// increment and a maximum burst size, grounded on
// diminuto_shaper_bursttolerance:
//
//	bt = (mbs >= 2 && sustainedIncrement > peakIncrement)
//	       ? (mbs-1)*(sustainedIncrement - peakIncrement) : 0
//	bt += jitterTolerance
func BurstTolerance(peakIncrement, jitterTolerance, sustainedIncrement clock.Tick, maximumBurstSize uint64) clock.Tick {
	var limit clock.Tick
	if maximumBurstSize > 1 && sustainedIncrement > peakIncrement {
		limit = clock.Tick(maximumBurstSize-1) * (sustainedIncrement - peakIncrement)
	}
	return limit + jitterTolerance
}
