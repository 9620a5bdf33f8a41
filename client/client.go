// Package client implements the Bolt client: version negotiation, the
// version-gated operation set, pipelining, and local tracking of the server
// state machine.
//
// A Client owns its byte stream and is used by one goroutine at a time.
// Concurrency across connections comes from instantiating multiple clients,
// typically behind a pool.
//
// Bolt has no in-band cancellation besides RESET.  If a call is abandoned
// mid-I/O the connection state is unknown; the client must be treated as
// Defunct and discarded, never recycled.
package client

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/m-lab/go/logx"
	"github.com/pkg/errors"

	"github.com/graphwire/bolt/chunk"
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/metrics"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/transport"
	"github.com/graphwire/bolt/version"
)

// preamble identifies the Bolt protocol during the handshake.
var preamble = [4]byte{0x60, 0x60, 0xB0, 0x17}

// unexpectedLog rate-limits complaints about surprising server traffic.
var unexpectedLog = logx.NewLogEvery(nil, time.Second)

// Client is a Bolt connection with a negotiated protocol version.
type Client struct {
	conn    transport.Conn
	version version.Version
	state   state.State
}

// New performs the version negotiation handshake over conn and returns a
// Client speaking the agreed version.  The server state is Connected; the
// caller should follow up with Hello (or Init) to authenticate.
func New(conn transport.Conn, proposals [4]version.Version) (*Client, error) {
	c := &Client{conn: conn, state: state.Disconnected}
	v, err := c.handshake(proposals)
	if err != nil {
		metrics.HandshakeCount.WithLabelValues("none").Inc()
		c.state = state.Defunct
		return nil, err
	}
	metrics.HandshakeCount.WithLabelValues(version.String(v)).Inc()
	c.version = v
	c.state = state.Connected
	return c, nil
}

func (c *Client) handshake(proposals [4]version.Version) (version.Version, error) {
	if _, err := c.conn.Write(preamble[:]); err != nil {
		return 0, errors.Wrap(err, "could not write handshake preamble")
	}
	if _, err := c.conn.Write(version.ProposalBytes(proposals)); err != nil {
		return 0, errors.Wrap(err, "could not write version proposals")
	}
	if err := c.conn.Flush(); err != nil {
		return 0, errors.Wrap(err, "could not flush handshake")
	}
	var reply [4]byte
	if _, err := io.ReadFull(c.conn, reply[:]); err != nil {
		return 0, errors.Wrap(err, "could not read handshake reply")
	}
	v := binary.BigEndian.Uint32(reply[:])
	if v == version.None || !proposed(proposals, v) {
		return 0, HandshakeError{Proposals: proposals}
	}
	return v, nil
}

func proposed(proposals [4]version.Version, v version.Version) bool {
	for _, p := range proposals {
		if p != version.None && p == v {
			return true
		}
	}
	return false
}

// Version returns the negotiated protocol version.
func (c *Client) Version() version.Version {
	return c.version
}

// State returns the server state as tracked by this client.
func (c *Client) State() state.State {
	return c.state
}

// Close ends the session.  On V3+ a best-effort GOODBYE is sent first; the
// underlying stream is closed either way.
func (c *Client) Close() error {
	if c.state != state.Defunct && c.state != state.Disconnected &&
		c.version >= version.V3_0 {
		// The server does not reply to GOODBYE; a send error changes nothing
		// about the close.
		_ = c.Goodbye()
	}
	c.state = state.Defunct
	return c.conn.Close()
}

// enqueue serializes and frames m into the connection's write buffer without
// flushing, so that pipelined messages share one flush.
func (c *Client) enqueue(m message.Message) error {
	buf, err := message.Marshal(m)
	if err != nil {
		metrics.ErrorCount.WithLabelValues("serialize").Inc()
		return err
	}
	if err := chunk.Write(c.conn, buf); err != nil {
		c.state = state.Defunct
		metrics.ErrorCount.WithLabelValues("io").Inc()
		return errors.Wrapf(err, "could not send %s", message.Name(m))
	}
	metrics.MessageSentCount.WithLabelValues(message.Name(m)).Inc()
	metrics.SentBytes.Add(float64(len(buf)))
	return nil
}

func (c *Client) flush() error {
	if err := c.conn.Flush(); err != nil {
		c.state = state.Defunct
		metrics.ErrorCount.WithLabelValues("io").Inc()
		return errors.Wrap(err, "could not flush stream")
	}
	return nil
}

func (c *Client) send(m message.Message) error {
	if err := c.enqueue(m); err != nil {
		return err
	}
	return c.flush()
}

// receive reads one complete message.  Any transport or decode fault makes
// the connection Defunct: after a partial read there is no way to find the
// next message boundary.
func (c *Client) receive() (message.Message, error) {
	buf, err := chunk.Read(c.conn)
	if err != nil {
		c.state = state.Defunct
		metrics.ErrorCount.WithLabelValues("io").Inc()
		return nil, errors.Wrap(err, "could not read message")
	}
	m, err := message.Unmarshal(buf)
	if err != nil {
		c.state = state.Defunct
		metrics.ErrorCount.WithLabelValues("deserialize").Inc()
		return nil, err
	}
	metrics.MessageReceivedCount.WithLabelValues(message.Name(m)).Inc()
	metrics.ReceivedBytes.Add(float64(len(buf)))
	return m, nil
}

// request performs one send/receive exchange and applies the resulting state
// transition.
func (c *Client) request(m message.Message) (message.Message, error) {
	if err := c.checkSendable(m); err != nil {
		return nil, err
	}
	from := c.state
	if err := c.send(m); err != nil {
		return nil, err
	}
	resp, err := c.receive()
	if err != nil {
		return nil, err
	}
	c.applyResponse(m, from, resp)
	return resp, nil
}

// checkSendable rejects messages that may not be sent in the current server
// state, before any I/O.  Requests sent in Failed or Interrupted are legal;
// the server answers them with IGNORED.
func (c *Client) checkSendable(m message.Message) error {
	if c.state == state.Disconnected || c.state == state.Defunct {
		return InvalidStateError{State: c.state, Message: m}
	}
	allowed := false
	switch m.(type) {
	case message.Init, message.Hello:
		allowed = c.state == state.Connected
	case message.Run, message.RunWithMetadata:
		switch c.state {
		case state.Ready, state.TxReady, state.TxStreaming, state.Failed, state.Interrupted:
			allowed = true
		}
	case message.PullAll, message.Pull, message.DiscardAll, message.Discard:
		switch c.state {
		case state.Streaming, state.TxStreaming, state.Failed, state.Interrupted:
			allowed = true
		}
	case message.AckFailure:
		allowed = c.state == state.Failed
	case message.Begin:
		switch c.state {
		case state.Ready, state.Failed, state.Interrupted:
			allowed = true
		}
	case message.Commit, message.Rollback:
		switch c.state {
		case state.TxReady, state.Failed, state.Interrupted:
			allowed = true
		}
	case message.Route, message.RouteWithMetadata:
		switch c.state {
		case state.Ready, state.Failed, state.Interrupted:
			allowed = true
		}
	case message.Reset, message.Goodbye:
		allowed = true
	}
	if !allowed {
		return InvalidStateError{State: c.state, Message: m}
	}
	return nil
}

// applyResponse advances the tracked server state after a summary message.
// Detail messages (RECORD) and IGNORED do not move the state machine.
func (c *Client) applyResponse(req message.Message, from state.State, resp message.Message) {
	var success message.Success
	switch r := resp.(type) {
	case message.Record, message.Ignored:
		return
	case message.Success:
		success = r
	case message.Failure:
		switch req.(type) {
		case message.Init, message.Hello, message.AckFailure, message.Reset:
			c.state = state.Defunct
		default:
			c.state = state.Failed
		}
		return
	default:
		// The server sent a request message.  There is no way to continue.
		unexpectedLog.Println("unexpected server message", message.Name(resp))
		c.state = state.Defunct
		return
	}
	switch req.(type) {
	case message.Init, message.Hello, message.AckFailure, message.Reset,
		message.Commit, message.Rollback, message.Route, message.RouteWithMetadata:
		c.state = state.Ready
	case message.Run, message.RunWithMetadata:
		if from == state.TxReady || from == state.TxStreaming {
			c.state = state.TxStreaming
		} else {
			c.state = state.Streaming
		}
	case message.PullAll, message.Pull, message.DiscardAll, message.Discard:
		switch {
		case success.HasMore():
			c.state = from
		case from == state.TxStreaming:
			c.state = state.TxReady
		default:
			c.state = state.Ready
		}
	case message.Begin:
		c.state = state.TxReady
	}
}
