// Package chunk implements the Bolt message framing layer.  A message's
// serialized bytes travel as consecutive length-prefixed chunks and end with
// a zero-length chunk.
package chunk

import (
	"encoding/binary"
	"io"
)

// MaxChunkSize is the largest data chunk this package emits: the official
// driver's default of 16383, minus the 16-bit length header.
const MaxChunkSize = 16383 - 2

// terminator is the zero-length end-of-message chunk.
var terminator = [2]byte{0x00, 0x00}

// Write frames msg into chunks of at most MaxChunkSize bytes, each preceded
// by its 16-bit big-endian length, and appends the end-of-message terminator.
func Write(w io.Writer, msg []byte) error {
	var header [2]byte
	for len(msg) > 0 {
		n := len(msg)
		if n > MaxChunkSize {
			n = MaxChunkSize
		}
		binary.BigEndian.PutUint16(header[:], uint16(n))
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
		if _, err := w.Write(msg[:n]); err != nil {
			return err
		}
		msg = msg[n:]
	}
	_, err := w.Write(terminator[:])
	return err
}

// Read reassembles one message from r.  Zero-length chunks before the first
// data chunk are server no-ops and are skipped; the first zero-length chunk
// after data completes the message.
func Read(r io.Reader) ([]byte, error) {
	var header [2]byte
	// Skip any leading no-op frames.
	chunkLen := uint16(0)
	for chunkLen == 0 {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, err
		}
		chunkLen = binary.BigEndian.Uint16(header[:])
	}
	var msg []byte
	for chunkLen > 0 {
		buf := make([]byte, chunkLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		msg = append(msg, buf...)
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, err
		}
		chunkLen = binary.BigEndian.Uint16(header[:])
	}
	return msg, nil
}
