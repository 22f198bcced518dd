package framer

import (
	"bufio"
	"errors"
	"io"
)

// Reader pumps bytes from an underlying io.Reader through a Framer,
// grounded on diminuto_framer_reader/diminuto_framer_read.
type Reader struct {
	r *bufio.Reader
	f *Framer
}

// NewReader wraps r with a Framer, buffering reads so Step can tell
// whether more input is already available without blocking.
func NewReader(r io.Reader, f *Framer) *Reader {
	return &Reader{r: bufio.NewReader(r), f: f}
}

// Step feeds bytes already available from the underlying reader into the
// Framer while any remain buffered, mirroring diminuto_framer_reader's
// drain-while-ready loop. It returns:
//
//   - (0, nil) if a frame is still in progress — call Step again once more
//     input is available (e.g. after the next read-ready wakeup).
//   - (n, nil) with n = f.Length() once a non-empty frame completes;
//     inspect f.Payload() for the bytes.
//   - (-1, io.EOF) once the underlying reader reports EOF mid-frame, or
//     cleanly between frames.
//   - (0, *StateError) when a frame is rejected (ABORT, FAILED, OVERFLOW,
//     or INVALID). The Framer has already been reset and is ready for the
//     next frame; per policy this is a local, recoverable condition, and
//     callers that don't care about individual rejections may discard the
//     error and keep calling Step.
//
// Any other I/O error is returned unwrapped, with (0, err).
func (rd *Reader) Step() (int, error) {
	for {
		b, err := rd.r.ReadByte()

		var state State
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return 0, err
			}
			state = rd.f.Step(eof)
		} else {
			state = rd.f.Step(int(b))
		}

		switch state {
		case StateComplete:
			if rd.f.Length() == 0 {
				// An empty frame is legal wire traffic (e.g. a keepalive)
				// but carries no payload to report; recognize it silently
				// and keep draining.
				rd.f.Reset()
			} else {
				return rd.f.Length(), nil
			}
		case StateFinal:
			return -1, io.EOF
		case StateAbort, StateFailed, StateOverflow, StateInvalid:
			rd.f.Reset()
			return 0, &StateError{State: state}
		}

		if rd.r.Buffered() == 0 {
			return 0, nil
		}
	}
}

// Read loops Step until a frame completes or the stream ends, grounded on
// diminuto_framer_read. On success it returns the completed frame's
// payload length; the bytes themselves are in f.Payload(). A *StateError
// is returned (not wrapped further) the moment one rejected frame is
// observed, leaving the Framer ready to recognize the next one.
func (rd *Reader) Read() (int, error) {
	for {
		n, err := rd.Step()
		if err != nil {
			return 0, err
		}
		if n != 0 {
			return n, nil
		}
	}
}
