// Package framer presents a byte stream as a sequence of length-delimited,
// checksummed frames, grounded on Diminuto's diminuto_framer family: an
// HDLC-flavored byte-stuffing wire format with a Fletcher-16 checksummed
// length header and a Kermit-16 (CRC-16/CCITT-Kermit) checksummed payload,
// the CRC itself transmitted as three printable-ASCII characters using the
// da Cruz six-bit-per-character encoding.
//
// Framer itself is a pure finite state machine: it has no knowledge of
// file descriptors or serial ports. Reader/Writer in this package adapt it
// to io.Reader/io.Writer so callers can drive it over any byte stream.
package framer
