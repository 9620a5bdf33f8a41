package client

import (
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/version"
)

// Rows is a fully-pulled result stream.
type Rows struct {
	records []message.Record
	summary message.Message
	next    int
}

// Next returns the fields of the next record, and false once the stream is
// exhausted.
func (r *Rows) Next() ([]packstream.Value, bool) {
	if r.next >= len(r.records) {
		return nil, false
	}
	fields := r.records[r.next].Fields
	r.next++
	return fields, true
}

// Len returns the number of records pulled.
func (r *Rows) Len() int {
	return len(r.records)
}

// Summary returns the message that terminated the stream.
func (r *Rows) Summary() message.Message {
	return r.summary
}

// Failure returns the summary as a Failure when the stream ended in one.
func (r *Rows) Failure() (message.Failure, bool) {
	f, ok := r.summary.(message.Failure)
	return f, ok
}

// Query submits a query and pulls the whole result, dispatching to the
// message set of the negotiated version.  The query's own summary is
// discarded when it succeeds; a Failure summary short-circuits the pull and
// is returned in Rows.
func (c *Client) Query(query string, parameters map[string]packstream.Value) (*Rows, error) {
	var resp message.Message
	var err error
	if c.version >= version.V3_0 {
		resp, err = c.RunWithMetadata(query, parameters, nil)
	} else {
		resp, err = c.Run(query, parameters)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := resp.(message.Success); !ok {
		return &Rows{summary: resp}, nil
	}
	var records []message.Record
	var summary message.Message
	if c.version >= version.V4_0 {
		records, summary, err = c.Pull(map[string]packstream.Value{"n": int64(-1)})
	} else {
		records, summary, err = c.PullAll()
	}
	if err != nil {
		return nil, err
	}
	return &Rows{records: records, summary: summary}, nil
}
