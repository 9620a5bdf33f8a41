// Package transport provides the byte stream carriers underneath a Bolt
// client: a plain TCP socket or a TLS-wrapped one, both buffered.  The client
// itself only sees the Conn interface.
package transport

import (
	"bufio"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Conn is the abstract bidirectional byte stream the client consumes.
// Writes are buffered until Flush.
type Conn interface {
	io.Reader
	io.Writer
	Flush() error
	Close() error
}

// Stream is a buffered network connection.
type Stream struct {
	raw net.Conn
	br  *bufio.Reader
	bw  *bufio.Writer
}

// NewStream wraps an established network connection.
func NewStream(raw net.Conn) *Stream {
	return &Stream{
		raw: raw,
		br:  bufio.NewReader(raw),
		bw:  bufio.NewWriter(raw),
	}
}

// Dial connects to addr over TCP.  If domain is nonempty the connection is
// wrapped in TLS, verifying the server certificate against that domain.
func Dial(addr, domain string, timeout time.Duration) (*Stream, error) {
	dialer := &net.Dialer{Timeout: timeout}
	raw, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", addr)
	}
	if domain == "" {
		return NewStream(raw), nil
	}
	tlsConn := tls.Client(raw, &tls.Config{ServerName: domain})
	if err := tlsConn.Handshake(); err != nil {
		raw.Close()
		return nil, errors.Wrapf(err, "TLS handshake with %s failed", domain)
	}
	return NewStream(tlsConn), nil
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.br.Read(p)
}

func (s *Stream) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

// Flush writes any buffered output to the socket.
func (s *Stream) Flush() error {
	return s.bw.Flush()
}

// Close closes the underlying socket.  Buffered output is not flushed.
func (s *Stream) Close() error {
	return s.raw.Close()
}

// Raw returns the underlying network connection, e.g. for socket-level
// tagging by a pool.
func (s *Stream) Raw() net.Conn {
	return s.raw
}
