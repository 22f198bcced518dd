package framer

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello, framer")

	n, err := Write(&buf, payload)
	require.NoError(t, err)
	assert.Greater(t, n, len(payload))

	f := New(make([]byte, 256))
	rd := NewReader(&buf, f)

	length, err := rd.Read()
	require.NoError(t, err)
	assert.Equal(t, len(payload), length)
	assert.Equal(t, payload, f.Payload())
	assert.Equal(t, StateComplete, f.State())
}

func TestWriteReadEmptyPayload(t *testing.T) {
	var buf bytes.Buffer

	_, err := Write(&buf, nil)
	require.NoError(t, err)

	f := New(make([]byte, 64))
	rd := NewReader(&buf, f)

	// An empty frame completes with zero payload; Reader.Step recognizes
	// it silently and keeps draining rather than reporting it as a frame.
	n, err := rd.Step()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = rd.Read()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)
}

func TestWriteRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, make([]byte, MaxPayload+1))
	assert.ErrorIs(t, err, ErrTooBig)
	assert.Zero(t, buf.Len())
}

func TestEmitEscapesControlOctets(t *testing.T) {
	var buf bytes.Buffer
	n, err := Emit(&buf, []byte{flag, 'x', escape, xon, xoff})
	require.NoError(t, err)
	assert.Equal(t, n, buf.Len())
	assert.Equal(t, []byte{
		escape, flag ^ mask,
		'x',
		escape, escape ^ mask,
		escape, xon ^ mask,
		escape, xoff ^ mask,
	}, buf.Bytes())
}

func TestAbortMidFrameTransitionsToAbort(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, []byte("partial payload that won't finish"))
	require.NoError(t, err)

	// Truncate after the opening FLAG, length, and checksum fields plus the
	// first payload byte so we land in StatePayload, then inject the abort
	// sequence mid-payload.
	f := New(make([]byte, 256))
	truncated := buf.Bytes()[:8]
	for _, b := range truncated {
		f.Step(int(b))
	}
	require.Equal(t, StatePayload, f.State())

	state := f.Step(int(escape))
	require.Equal(t, StatePayloadEscaped, state)
	state = f.Step(int(flag))
	assert.Equal(t, StateAbort, state)
	assert.True(t, state.IsTerminal())
}

func TestOverflowWhenPayloadExceedsBuffer(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, []byte("this payload is bigger than the receive buffer"))
	require.NoError(t, err)

	f := New(make([]byte, 4))
	rd := NewReader(&buf, f)

	_, err = rd.Read()
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, StateOverflow, stateErr.State)
}

func TestInvalidOnUnescapedXonMidFrame(t *testing.T) {
	f := New(make([]byte, 64))
	f.Step(int(flag))
	require.Equal(t, StateFlag, f.State())
	state := f.Step(int(xon))
	assert.Equal(t, StateInvalid, state)
}

func TestFailedOnFletcherMismatch(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, []byte("corrupt me"))
	require.NoError(t, err)

	corrupted := buf.Bytes()
	// The Fletcher-16 bytes immediately follow FLAG + 4 length bytes.
	corrupted[5] ^= 0xff

	f := New(make([]byte, 64))
	rd := NewReader(bytes.NewReader(corrupted), f)

	_, err = rd.Read()
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, StateFailed, stateErr.State)
}

func TestFailedOnKermitMismatch(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, []byte("corrupt the crc"))
	require.NoError(t, err)

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-2] ^= 0x0f

	f := New(make([]byte, 64))
	rd := NewReader(bytes.NewReader(corrupted), f)

	_, err = rd.Read()
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, StateFailed, stateErr.State)
}

func TestMultipleFramesInSequence(t *testing.T) {
	var buf bytes.Buffer
	first := []byte("frame one")
	second := []byte("frame two, a bit longer")

	_, err := Write(&buf, first)
	require.NoError(t, err)
	_, err = Write(&buf, second)
	require.NoError(t, err)

	f := New(make([]byte, 256))
	rd := NewReader(&buf, f)

	n, err := rd.Read()
	require.NoError(t, err)
	assert.Equal(t, first, append([]byte(nil), f.Payload()...))
	assert.Equal(t, len(first), n)

	f.Reset()
	n, err = rd.Read()
	require.NoError(t, err)
	assert.Equal(t, second, append([]byte(nil), f.Payload()...))
	assert.Equal(t, len(second), n)
}

func TestSequenceHintsTrackMissingAndDuplicated(t *testing.T) {
	f := New(make([]byte, 64))

	send := func(seq uint16, tail string) {
		var buf bytes.Buffer
		payload := append([]byte{byte(seq >> 8), byte(seq)}, []byte(tail)...)
		_, err := Write(&buf, payload)
		require.NoError(t, err)
		rd := NewReader(&buf, f)
		_, err = rd.Read()
		require.NoError(t, err)
		f.Reset()
	}

	send(1, "a")
	assert.False(t, f.DidRollover())
	assert.Zero(t, f.GetMissing())

	send(2, "b")
	assert.Zero(t, f.GetMissing())
	assert.Zero(t, f.GetDuplicated())

	send(5, "c")
	assert.Equal(t, uint64(2), f.GetMissing())

	send(5, "d")
	assert.Equal(t, uint64(1), f.GetDuplicated())
}

func TestKermit16ReferenceVectors(t *testing.T) {
	assert.Equal(t, uint16(0x0000), kermit16(nil, 0))
	assert.Equal(t, uint16(0x538d), kermit16([]byte("A"), 0))
	assert.Equal(t, uint16(0x2189), kermit16([]byte("123456789"), 0))
}

func TestCrc2CharsMatchesKnownFixture(t *testing.T) {
	a, b, c := crc2chars(0154321)
	assert.Equal(t, byte('-'), a)
	assert.Equal(t, byte('C'), b)
	assert.Equal(t, byte('1'), c)
	assert.Equal(t, uint16(0154321), chars2crc(a, b, c))
}

func TestStateStringAndIsTerminal(t *testing.T) {
	assert.Equal(t, `PAYLOAD_ESCAPED`, StatePayloadEscaped.String())
	assert.True(t, StateOverflow.IsTerminal())
	assert.False(t, StateFlag.IsTerminal())
}

func TestAbortWriteProducesTwoBytes(t *testing.T) {
	var buf bytes.Buffer
	n, err := Abort(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{escape, flag}, buf.Bytes())
}
