package client_test

import (
	"testing"

	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/version"
)

func TestQueryV4(t *testing.T) {
	c, f := ready(t, version.V4_4)
	f.reply(t, message.Success{Metadata: map[string]packstream.Value{"fields": []packstream.Value{"n"}}})
	f.reply(t, message.Record{Fields: []packstream.Value{int64(1)}})
	f.reply(t, message.Record{Fields: []packstream.Value{int64(2)}})
	f.reply(t, message.Success{Metadata: map[string]packstream.Value{"type": "r"}})

	rows, err := c.Query("UNWIND range(1, 2) AS n RETURN n;", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows.Len() != 2 {
		t.Fatal("Len =", rows.Len())
	}
	var got []int64
	for {
		fields, ok := rows.Next()
		if !ok {
			break
		}
		got = append(got, fields[0].(int64))
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Error("Rows =", got)
	}
	if _, ok := rows.Summary().(message.Success); !ok {
		t.Errorf("Summary = %T", rows.Summary())
	}
	if _, failed := rows.Failure(); failed {
		t.Error("Failure() should be false on success")
	}
	if c.State() != state.Ready {
		t.Error("State =", c.State())
	}

	// The requests on the wire were RUN followed by PULL.
	sent := f.sentMessages(t)
	if len(sent) != 2 {
		t.Fatal("Sent", len(sent), "messages")
	}
	if _, ok := sent[0].(message.RunWithMetadata); !ok {
		t.Errorf("First sent = %T", sent[0])
	}
	if _, ok := sent[1].(message.Pull); !ok {
		t.Errorf("Second sent = %T", sent[1])
	}
}

func TestQueryV1UsesRunAndPullAll(t *testing.T) {
	c, f := ready(t, version.V1_0)
	f.reply(t, message.Success{Metadata: map[string]packstream.Value{}})
	f.reply(t, message.Success{Metadata: map[string]packstream.Value{}})
	rows, err := c.Query("RETURN 1;", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows.Len() != 0 {
		t.Error("Len =", rows.Len())
	}
	sent := f.sentMessages(t)
	if _, ok := sent[0].(message.Run); !ok {
		t.Errorf("First sent = %T", sent[0])
	}
	if _, ok := sent[1].(message.PullAll); !ok {
		t.Errorf("Second sent = %T", sent[1])
	}
}

func TestQueryFailureShortCircuits(t *testing.T) {
	c, f := ready(t, version.V4_4)
	f.reply(t, message.Failure{Metadata: map[string]packstream.Value{
		"code": "Neo.ClientError.Statement.SyntaxError", "message": "bad",
	}})
	rows, err := c.Query("definitely not cypher", nil)
	if err != nil {
		t.Fatal(err)
	}
	failure, failed := rows.Failure()
	if !failed {
		t.Fatal("Expected a failure summary")
	}
	if failure.Code() != "Neo.ClientError.Statement.SyntaxError" {
		t.Error("Code =", failure.Code())
	}
	if c.State() != state.Failed {
		t.Error("State =", c.State())
	}
	// Only RUN went out; the pull was skipped.
	sent := f.sentMessages(t)
	if len(sent) != 1 {
		t.Error("Sent", len(sent), "messages")
	}
}
