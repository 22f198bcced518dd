package framer

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Emit writes data to w, escaping any FLAG, ESCAPE, XON, or XOFF octet as
// ESCAPE followed by the octet XORed with mask, grounded on
// diminuto_framer_emit. It returns the number of bytes written to w, which
// may exceed len(data) once escaping is accounted for.
func Emit(w io.Writer, data []byte) (int, error) {
	written := 0
	var stuffed [2]byte
	for _, ch := range data {
		var out []byte
		switch ch {
		case flag, escape, xon, xoff:
			stuffed[0], stuffed[1] = escape, ch^mask
			out = stuffed[:]
		default:
			stuffed[0] = ch
			out = stuffed[:1]
		}
		n, err := w.Write(out)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Write encodes data as one complete frame and writes it to w: a leading
// FLAG, the network-order length, its Fletcher-16 checksum, the
// byte-stuffed payload, the three-character Kermit-16 CRC, and a trailing
// FLAG, grounded on diminuto_framer_writer. It returns the total bytes
// written. A payload longer than MaxPayload is rejected with ErrTooBig
// before anything is written.
func Write(w io.Writer, data []byte) (int, error) {
	if len(data) > MaxPayload {
		return 0, ErrTooBig
	}

	bw := bufio.NewWriter(w)
	total := 0

	n, err := bw.Write([]byte{flag})
	total += n
	if err != nil {
		return total, err
	}

	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(data)))
	n, err = Emit(bw, lengthBuf[:])
	total += n
	if err != nil {
		return total, err
	}

	var a, b byte
	fletcher16(lengthBuf[:], &a, &b)
	n, err = Emit(bw, []byte{a, b})
	total += n
	if err != nil {
		return total, err
	}

	if len(data) > 0 {
		n, err = Emit(bw, data)
		total += n
		if err != nil {
			return total, err
		}
	}

	crc := kermit16(data, 0)
	ca, cb, cc := crc2chars(crc)
	n, err = bw.Write([]byte{ca, cb, cc})
	total += n
	if err != nil {
		return total, err
	}

	n, err = bw.Write([]byte{flag})
	total += n
	if err != nil {
		return total, err
	}

	if err := bw.Flush(); err != nil {
		return total, err
	}
	return total, nil
}

// Abort writes the two-octet abort sequence (ESCAPE, FLAG) unescaped,
// grounded on diminuto_framer_abort. A receiver mid-frame sees this as
// ESCAPE followed by FLAG and transitions to StateAbort; a receiver between
// frames (StateReset) silently discards the stray ESCAPE and then starts a
// new frame on FLAG, so sending Abort when no frame is in progress is
// harmless.
func Abort(w io.Writer) (int, error) {
	n, err := w.Write([]byte{escape, flag})
	if err != nil {
		return n, err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return n, err
		}
	}
	return n, nil
}
