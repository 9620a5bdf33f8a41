package client

import (
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/metrics"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/version"
)

// Init authenticates a V1/V2 session.  clientName identifies the client
// software; auth carries at least a "scheme" entry.
func (c *Client) Init(clientName string, auth map[string]packstream.Value) (message.Message, error) {
	if c.version > version.V2_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.Init{ClientName: clientName, Auth: auth})
}

// Hello authenticates a V3+ session.  metadata must carry "user_agent" plus
// the authentication entries.  On V1/V2 connections the call degrades to INIT
// by extracting "user_agent" as the client name.
func (c *Client) Hello(metadata map[string]packstream.Value) (message.Message, error) {
	if c.version < version.V3_0 {
		agent, _ := metadata["user_agent"].(string)
		auth := make(map[string]packstream.Value, len(metadata))
		for k, v := range metadata {
			if k != "user_agent" {
				auth[k] = v
			}
		}
		return c.request(message.Init{ClientName: agent, Auth: auth})
	}
	return c.request(message.Hello{Metadata: metadata})
}

// Goodbye tells a V3+ server the session is over.  The server closes the
// connection without replying, so the client is Defunct afterwards.
func (c *Client) Goodbye() error {
	if c.version < version.V3_0 {
		return UnsupportedOperationError{Version: c.version}
	}
	m := message.Goodbye{}
	if err := c.checkSendable(m); err != nil {
		return err
	}
	if err := c.send(m); err != nil {
		return err
	}
	c.state = state.Defunct
	return nil
}

// Run submits a V1/V2 query.
func (c *Client) Run(query string, parameters map[string]packstream.Value) (message.Message, error) {
	if c.version > version.V2_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.Run{Query: query, Parameters: parameters})
}

// RunWithMetadata submits a V3+ query.  metadata may carry bookmarks,
// tx_timeout, tx_metadata, mode and (V4+) db.
func (c *Client) RunWithMetadata(query string, parameters, metadata map[string]packstream.Value) (message.Message, error) {
	if c.version < version.V3_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.RunWithMetadata{Query: query, Parameters: parameters, Metadata: metadata})
}

// PullAll fetches every record of the result stream (V1..V3), returning the
// records and the summary message that ended them.
func (c *Client) PullAll() ([]message.Record, message.Message, error) {
	if c.version > version.V3_0 {
		return nil, nil, UnsupportedOperationError{Version: c.version}
	}
	return c.streamRequest(message.PullAll{})
}

// Pull fetches records on V4+.  metadata carries "n" (-1 for all) and
// optionally "qid".  When the summary reports has_more, the stream stays open
// and Pull may be called again.
func (c *Client) Pull(metadata map[string]packstream.Value) ([]message.Record, message.Message, error) {
	if c.version < version.V4_0 {
		return nil, nil, UnsupportedOperationError{Version: c.version}
	}
	return c.streamRequest(message.Pull{Metadata: metadata})
}

// DiscardAll drops the rest of the result stream (V1..V3) and returns the
// summary.
func (c *Client) DiscardAll() (message.Message, error) {
	if c.version > version.V3_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	_, summary, err := c.streamRequest(message.DiscardAll{})
	return summary, err
}

// Discard drops result records on V4+.  metadata carries "n" and optionally
// "qid".
func (c *Client) Discard(metadata map[string]packstream.Value) (message.Message, error) {
	if c.version < version.V4_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	_, summary, err := c.streamRequest(message.Discard{Metadata: metadata})
	return summary, err
}

// AckFailure clears a Failed state on V1/V2.  V3+ uses Reset instead.
func (c *Client) AckFailure() (message.Message, error) {
	if c.version > version.V2_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.AckFailure{})
}

// Reset aborts all in-flight and queued work.  The server answers every
// outstanding request with IGNORED before acknowledging the RESET itself;
// those responses are read and discarded here.
func (c *Client) Reset() (message.Message, error) {
	m := message.Reset{}
	if err := c.checkSendable(m); err != nil {
		return nil, err
	}
	if err := c.send(m); err != nil {
		return nil, err
	}
	c.state = state.Interrupted
	for {
		resp, err := c.receive()
		if err != nil {
			return nil, err
		}
		switch resp.(type) {
		case message.Ignored, message.Record:
			// Responses to work the RESET aborted.
			continue
		case message.Success:
			c.state = state.Ready
			return resp, nil
		case message.Failure:
			c.state = state.Defunct
			return resp, nil
		default:
			unexpectedLog.Println("unexpected server message", message.Name(resp))
			c.state = state.Defunct
			return resp, nil
		}
	}
}

// Begin opens an explicit transaction (V3+).
func (c *Client) Begin(metadata map[string]packstream.Value) (message.Message, error) {
	if c.version < version.V3_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.Begin{Metadata: metadata})
}

// Commit commits the open transaction (V3+).
func (c *Client) Commit() (message.Message, error) {
	if c.version < version.V3_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.Commit{})
}

// Rollback rolls back the open transaction (V3+).
func (c *Client) Rollback() (message.Message, error) {
	if c.version < version.V3_0 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	return c.request(message.Rollback{})
}

// Route requests the routing table for db (empty means the default database).
// Supported from V4.3; the wire form differs between 4.3 and 4.4.
func (c *Client) Route(context map[string]packstream.Value, bookmarks []string, db string) (message.Message, error) {
	if c.version < version.V4_3 {
		return nil, UnsupportedOperationError{Version: c.version}
	}
	if c.version >= version.V4_4 {
		md := map[string]packstream.Value{}
		if db != "" {
			md["db"] = db
		}
		return c.request(message.RouteWithMetadata{Context: context, Bookmarks: bookmarks, Metadata: md})
	}
	var database packstream.Value
	if db != "" {
		database = db
	}
	return c.request(message.Route{Context: context, Bookmarks: bookmarks, Database: database})
}

// Pipeline sends messages in order without waiting, then reads responses
// until each request has its summary.  RECORD messages are returned
// interleaved, before the summary of the request that produced them.  All
// messages are version-checked before any I/O.
func (c *Client) Pipeline(msgs []message.Message) ([]message.Message, error) {
	for _, m := range msgs {
		if !supported(m, c.version) {
			return nil, UnsupportedOperationError{Version: c.version}
		}
		if _, ok := m.(message.Goodbye); ok {
			// GOODBYE has no response and cannot be paired in a pipeline.
			return nil, InvalidStateError{State: c.state, Message: m}
		}
	}
	if c.state == state.Disconnected || c.state == state.Defunct {
		return nil, InvalidStateError{State: c.state}
	}
	for _, m := range msgs {
		if err := c.enqueue(m); err != nil {
			return nil, err
		}
	}
	if err := c.flush(); err != nil {
		return nil, err
	}
	var responses []message.Message
	for _, m := range msgs {
		if _, ok := m.(message.Reset); ok {
			c.state = state.Interrupted
		}
		for {
			resp, err := c.receive()
			if err != nil {
				return responses, err
			}
			responses = append(responses, resp)
			if _, ok := resp.(message.Record); ok {
				continue
			}
			c.applyResponse(m, c.state, resp)
			break
		}
	}
	return responses, nil
}

// streamRequest sends a pull or discard and collects RECORD messages until
// the summary arrives.
func (c *Client) streamRequest(m message.Message) ([]message.Record, message.Message, error) {
	if err := c.checkSendable(m); err != nil {
		return nil, nil, err
	}
	from := c.state
	if err := c.send(m); err != nil {
		return nil, nil, err
	}
	var records []message.Record
	for {
		resp, err := c.receive()
		if err != nil {
			return records, nil, err
		}
		if record, ok := resp.(message.Record); ok {
			records = append(records, record)
			continue
		}
		metrics.RecordCountHistogram.Observe(float64(len(records)))
		c.applyResponse(m, from, resp)
		return records, resp, nil
	}
}

// supported reports whether a request message exists at protocol version v.
func supported(m message.Message, v version.Version) bool {
	switch m.(type) {
	case message.Init, message.Run, message.AckFailure:
		return v <= version.V2_0
	case message.PullAll, message.DiscardAll:
		return v <= version.V3_0
	case message.Reset:
		return true
	case message.Hello, message.Goodbye, message.RunWithMetadata,
		message.Begin, message.Commit, message.Rollback:
		return v >= version.V3_0
	case message.Pull, message.Discard:
		return v >= version.V4_0
	case message.Route:
		return v >= version.V4_3
	case message.RouteWithMetadata:
		return v >= version.V4_4
	}
	return false
}
