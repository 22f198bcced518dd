package framer

import (
	"encoding/binary"

	"github.com/joeycumines/logiface"

	"github.com/dimcore/posixcore/posixlog"
)

// Framer is a pure finite state machine that decodes one byte-stuffed,
// checksummed frame at a time from a caller-fed byte stream, grounded on
// diminuto_framer_t / diminuto_framer_machine.
//
// A Framer owns no I/O: Step consumes one byte (or EOF) at a time and
// returns the resulting state. The caller supplies the payload buffer at
// construction; len(buffer) bounds how large a frame this Framer accepts,
// and a payload longer than len(buffer) transitions to StateOverflow. The
// receiver does not check MaxPayload itself.
type Framer struct {
	state State

	buffer []byte // caller-supplied payload storage
	length int    // decoded payload length for the in-progress frame
	total  int    // bytes consumed so far for the in-progress frame

	fieldIdx int // write cursor within whichever field is currently active

	lengthBuf [4]byte
	sumBuf    [2]byte // Fletcher-16 bytes as received off the wire
	a, b      byte    // running Fletcher-16 accumulator over lengthBuf
	crc       uint16  // computed Kermit-16 over the payload
	checkBuf  [3]byte // Kermit CRC characters as received off the wire

	seq sequenceState

	logger *posixlog.Logger
}

// New constructs a Framer in StateReset, using buf as payload storage.
// len(buf) bounds the largest payload this Framer accepts; it must be at
// least MaxPayload bytes for the full legal range to be usable.
func New(buf []byte) *Framer {
	f := &Framer{buffer: buf}
	f.doReset()
	return f
}

// SetLogger attaches a logger for DEBUG-level per-transition tracing,
// grounded on diminuto_framer_t's debug flag.
func (f *Framer) SetLogger(logger *posixlog.Logger) { f.logger = logger }

// State returns the framer's current state.
func (f *Framer) State() State { return f.state }

// Length returns the decoded payload length of the most recently completed
// frame.
func (f *Framer) Length() int { return f.length }

// Payload returns the payload bytes of the most recently completed frame.
// The returned slice aliases the Framer's internal buffer and is only
// valid until the next Step call following Reset.
func (f *Framer) Payload() []byte { return f.buffer[:f.length] }

// Reset returns the framer to StateReset, ready to recognize the next
// frame. Callers must call Reset after every terminal state
// (State.IsTerminal).
func (f *Framer) Reset() {
	f.state = StateReset
	f.doReset()
}

// Step feeds one byte (0-255) or EOF (pass any negative int) into the state
// machine and returns the resulting state.
func (f *Framer) Step(token int) State {
	prior := f.state

	if token < 0 {
		f.state = StateFinal
		f.logStep(prior, token)
		return f.state
	}

	ch := byte(token)
	f.total++

	switch f.state {
	case StateReset:
		if ch == flag {
			f.doReset()
			f.state = StateFlag
		}

	case StateFlag:
		switch ch {
		case flag:
			// Multiple FLAG octets between frames are legal; HDLC frames
			// both begin and end with one.
		case escape:
			f.state = StateLengthEscaped
		case xon, xoff:
			f.state = StateInvalid
		default:
			f.lengthBuf[0] = ch
			f.fieldIdx = 1
			f.state = StateLength
		}

	case StateLength:
		f.stepLength(ch, false)

	case StateLengthEscaped:
		f.stepLength(ch, true)

	case StateFletcher:
		f.stepFletcher(ch, false)

	case StateFletcherEscaped:
		f.stepFletcher(ch, true)

	case StatePayload:
		f.stepPayload(ch, false)

	case StatePayloadEscaped:
		f.stepPayload(ch, true)

	case StateKermit:
		f.stepKermit(ch)

	default:
		// COMPLETE, FINAL, ABORT, FAILED, OVERFLOW, INVALID, IDLE: the
		// caller must Reset before feeding further bytes.
	}

	f.logStep(prior, token)
	return f.state
}

// stepLength handles StateLength/StateLengthEscaped, collecting the four
// network-order length bytes.
func (f *Framer) stepLength(ch byte, escaped bool) {
	switch ch {
	case flag:
		if escaped {
			f.state = StateAbort // ESCAPE+FLAG is the abort sequence.
		} else {
			f.doReset()
			f.state = StateFlag
		}
	case escape:
		if escaped {
			f.state = StateInvalid
		} else {
			f.state = StateLengthEscaped
		}
	case xon, xoff:
		f.state = StateInvalid
	default:
		if escaped {
			ch ^= mask
		}
		f.lengthBuf[f.fieldIdx] = ch
		f.fieldIdx++
		if f.fieldIdx < len(f.lengthBuf) {
			f.state = StateLength
		} else {
			f.completeLength()
		}
	}
}

// completeLength runs once the fourth length byte has been stored: it
// computes the Fletcher-16 accumulator over the network-order bytes,
// decodes the host-order length, and transitions to StateFletcher.
func (f *Framer) completeLength() {
	fletcher16(f.lengthBuf[:], &f.a, &f.b)
	f.length = int(binary.BigEndian.Uint32(f.lengthBuf[:]))
	f.fieldIdx = 0
	f.state = StateFletcher
}

// stepFletcher handles StateFletcher/StateFletcherEscaped, collecting the
// two received Fletcher-16 checksum bytes.
func (f *Framer) stepFletcher(ch byte, escaped bool) {
	switch ch {
	case flag:
		if escaped {
			f.state = StateAbort
		} else {
			f.doReset()
			f.state = StateFlag
		}
	case escape:
		if escaped {
			f.state = StateInvalid
		} else {
			f.state = StateFletcherEscaped
		}
	case xon, xoff:
		f.state = StateInvalid
	default:
		if escaped {
			ch ^= mask
		}
		f.sumBuf[f.fieldIdx] = ch
		f.fieldIdx++
		if f.fieldIdx < len(f.sumBuf) {
			f.state = StateFletcher
		} else {
			f.completeFletcher()
		}
	}
}

// completeFletcher runs once both checksum bytes are in: it validates the
// received checksum against the computed one and decides whether the next
// field is an empty payload's Kermit chars, an overflowing payload, or a
// normal payload.
func (f *Framer) completeFletcher() {
	if f.sumBuf[0] != f.a || f.sumBuf[1] != f.b {
		f.state = StateFailed
		return
	}
	switch {
	case f.length == 0:
		f.fieldIdx = 0
		f.state = StateKermit
	case f.length > len(f.buffer):
		f.state = StateOverflow
	default:
		f.fieldIdx = 0
		f.state = StatePayload
	}
}

// stepPayload handles StatePayload/StatePayloadEscaped, collecting the
// decoded-length payload bytes into the caller-supplied buffer.
func (f *Framer) stepPayload(ch byte, escaped bool) {
	switch ch {
	case flag:
		if escaped {
			f.state = StateAbort
		} else {
			f.doReset()
			f.state = StateFlag
		}
	case escape:
		if escaped {
			f.state = StateInvalid
		} else {
			f.state = StatePayloadEscaped
		}
	case xon, xoff:
		f.state = StateInvalid
	default:
		if escaped {
			ch ^= mask
		}
		f.buffer[f.fieldIdx] = ch
		f.fieldIdx++
		if f.fieldIdx < f.length {
			f.state = StatePayload
		} else {
			f.crc = kermit16(f.buffer[:f.length], 0)
			f.fieldIdx = 0
			f.state = StateKermit
		}
	}
}

// stepKermit handles StateKermit, collecting and validating the three
// printable Kermit CRC characters.
func (f *Framer) stepKermit(ch byte) {
	switch ch {
	case flag:
		// FLAG falls outside every Kermit encoding range, so it cannot be
		// mistaken for a CRC character; treat it as the start of the next
		// frame rather than a framing error.
		f.doReset()
		f.state = StateFlag
	case escape, xon, xoff:
		f.state = StateInvalid
	default:
		valid := false
		switch f.fieldIdx {
		case 0:
			valid = firstIsValid(ch)
		case 1:
			valid = secondIsValid(ch)
		case 2:
			valid = thirdIsValid(ch)
		}
		if !valid {
			f.state = StateInvalid
			return
		}
		f.checkBuf[f.fieldIdx] = ch
		f.fieldIdx++
		if f.fieldIdx < len(f.checkBuf) {
			return
		}
		crc := chars2crc(f.checkBuf[0], f.checkBuf[1], f.checkBuf[2])
		if crc != f.crc {
			f.state = StateFailed
		} else {
			f.state = StateComplete
			f.updateSequence()
		}
	}
}

// doReset performs the "RESET" action: reinitialize per-frame accumulators
// ahead of a FLAG that starts (or restarts) frame recognition.
func (f *Framer) doReset() {
	f.fieldIdx = 0
	f.total = 0
	f.length = 0
	f.a, f.b = 0, 0
	f.crc = 0
}

func (f *Framer) logStep(prior State, token int) {
	if f.logger == nil {
		return
	}
	posixlog.Event(f.logger, logiface.LevelDebug, posixlog.CategoryFramer, prior.String()+`->`+f.state.String())
}
