package message_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/go-test/deep"
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func TestInitBytes(t *testing.T) {
	m := message.Init{
		ClientName: "MyClient/1.0",
		Auth:       map[string]packstream.Value{"scheme": "basic"},
	}
	got, err := message.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xB2, 0x01,
		0x8C, 0x4D, 0x79, 0x43, 0x6C, 0x69, 0x65, 0x6E, 0x74, 0x2F, 0x31, 0x2E, 0x30,
		0xA1, 0x86, 0x73, 0x63, 0x68, 0x65, 0x6D, 0x65, 0x85, 0x62, 0x61, 0x73, 0x69, 0x63,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Marshal(Init) = % X, want % X", got, want)
	}
}

func roundTripMessage(t *testing.T, m message.Message) message.Message {
	t.Helper()
	buf, err := message.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal(%T) failed: %v", m, err)
	}
	back, err := message.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal(% X) failed: %v", buf, err)
	}
	return back
}

func TestCollisionDispatch(t *testing.T) {
	// INIT/HELLO, RUN/RUN_WITH_METADATA, DISCARD_ALL/DISCARD and
	// PULL_ALL/PULL share signature bytes and are told apart by field count.
	tests := []message.Message{
		message.Init{ClientName: "c", Auth: map[string]packstream.Value{"scheme": "none"}},
		message.Hello{Metadata: map[string]packstream.Value{"user_agent": "c"}},
		message.Run{Query: "RETURN 1;", Parameters: map[string]packstream.Value{}},
		message.RunWithMetadata{
			Query:      "RETURN 1;",
			Parameters: map[string]packstream.Value{},
			Metadata:   map[string]packstream.Value{"db": "neo4j"},
		},
		message.DiscardAll{},
		message.Discard{Metadata: map[string]packstream.Value{"n": int64(-1)}},
		message.PullAll{},
		message.Pull{Metadata: map[string]packstream.Value{"n": int64(100)}},
	}
	for _, m := range tests {
		back := roundTripMessage(t, m)
		if diff := deep.Equal(message.Message(m), back); diff != nil {
			t.Errorf("Round trip of %T drifted: %v", m, diff)
		}
	}
}

func TestAllMessagesRoundTrip(t *testing.T) {
	tests := []message.Message{
		message.Goodbye{},
		message.AckFailure{},
		message.Reset{},
		message.Begin{Metadata: map[string]packstream.Value{"tx_timeout": int64(2000)}},
		message.Commit{},
		message.Rollback{},
		message.Route{
			Context:   map[string]packstream.Value{"address": "x:7687"},
			Bookmarks: []string{"bm-1"},
			Database:  "neo4j",
		},
		message.RouteWithMetadata{
			Context:   map[string]packstream.Value{"address": "x:7687"},
			Bookmarks: []string{},
			Metadata:  map[string]packstream.Value{"db": "neo4j"},
		},
		message.Record{Fields: []packstream.Value{int64(1), "two"}},
		message.Success{Metadata: map[string]packstream.Value{"fields": []packstream.Value{"n"}}},
		message.Failure{Metadata: map[string]packstream.Value{"code": "Neo.ClientError", "message": "nope"}},
		message.Ignored{},
	}
	for _, m := range tests {
		back := roundTripMessage(t, m)
		if diff := deep.Equal(message.Message(m), back); diff != nil {
			t.Errorf("Round trip of %T drifted: %v", m, diff)
		}
	}
}

func TestEmptyStructBytes(t *testing.T) {
	tests := []struct {
		m    message.Message
		want []byte
	}{
		{message.Reset{}, []byte{0xB0, 0x0F}},
		{message.AckFailure{}, []byte{0xB0, 0x0E}},
		{message.Goodbye{}, []byte{0xB0, 0x02}},
		{message.Commit{}, []byte{0xB0, 0x12}},
		{message.Rollback{}, []byte{0xB0, 0x13}},
		{message.DiscardAll{}, []byte{0xB0, 0x2F}},
		{message.PullAll{}, []byte{0xB0, 0x3F}},
		{message.Ignored{}, []byte{0xB0, 0x7E}},
	}
	for _, test := range tests {
		got, err := message.Marshal(test.m)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, test.want) {
			t.Errorf("Marshal(%T) = % X, want % X", test.m, got, test.want)
		}
	}
}

func TestNilMapsSerializeAsEmpty(t *testing.T) {
	got, err := message.Marshal(message.Hello{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0xB1, 0x01, 0xA0}) {
		t.Errorf("Marshal(Hello{}) = % X, want B1 01 A0", got)
	}
}

func TestUnknownSignature(t *testing.T) {
	_, err := message.Unmarshal([]byte{0xB0, 0x55})
	if _, ok := err.(packstream.InvalidSignatureError); !ok {
		t.Errorf("Expected InvalidSignatureError, got %v", err)
	}
}

func TestBadFieldCount(t *testing.T) {
	// INIT/HELLO signature with 3 fields matches neither variant.
	_, err := message.Unmarshal([]byte{0xB3, 0x01, 0xC0, 0xC0, 0xC0})
	if _, ok := err.(packstream.InvalidSizeError); !ok {
		t.Errorf("Expected InvalidSizeError, got %v", err)
	}
	// RECORD with 0 fields.
	_, err = message.Unmarshal([]byte{0xB0, 0x71})
	if _, ok := err.(packstream.InvalidSizeError); !ok {
		t.Errorf("Expected InvalidSizeError, got %v", err)
	}
}

func TestTrailingBytes(t *testing.T) {
	buf, err := message.Marshal(message.Reset{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = message.Unmarshal(append(buf, 0xC0))
	if err != message.ErrTrailingBytes {
		t.Errorf("Expected ErrTrailingBytes, got %v", err)
	}
}

func TestTruncatedMessage(t *testing.T) {
	buf, err := message.Marshal(message.Run{Query: "RETURN 1;"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(buf); i++ {
		if _, err := message.Unmarshal(buf[:i]); err == nil {
			t.Errorf("Unmarshal of %d/%d bytes should fail", i, len(buf))
		}
	}
}

func TestFailureAccessors(t *testing.T) {
	f := message.Failure{Metadata: map[string]packstream.Value{
		"code":    "Neo.ClientError.Statement.SyntaxError",
		"message": "Invalid input",
	}}
	if f.Code() != "Neo.ClientError.Statement.SyntaxError" {
		t.Error("Code() =", f.Code())
	}
	if f.Text() != "Invalid input" {
		t.Error("Text() =", f.Text())
	}
	empty := message.Failure{Metadata: map[string]packstream.Value{}}
	if empty.Code() != "" || empty.Text() != "" {
		t.Error("Empty failure should have empty accessors")
	}
}

func TestSuccessHasMore(t *testing.T) {
	if (message.Success{Metadata: map[string]packstream.Value{}}).HasMore() {
		t.Error("HasMore without metadata should be false")
	}
	if !(message.Success{Metadata: map[string]packstream.Value{"has_more": true}}).HasMore() {
		t.Error("HasMore should be true")
	}
	if (message.Success{Metadata: map[string]packstream.Value{"has_more": false}}).HasMore() {
		t.Error("HasMore=false should be false")
	}
}

func TestName(t *testing.T) {
	if message.Name(message.Reset{}) != "RESET" {
		t.Error("Name(Reset) =", message.Name(message.Reset{}))
	}
	if message.Name(message.RunWithMetadata{}) != "RUN_WITH_METADATA" {
		t.Error("Name(RunWithMetadata) =", message.Name(message.RunWithMetadata{}))
	}
}

func TestRecordWithGraphValues(t *testing.T) {
	m := message.Record{Fields: []packstream.Value{
		packstream.Node{ID: 1, Labels: []string{"A"}, Properties: map[string]packstream.Value{}},
		packstream.Date{Days: 18000},
	}}
	back := roundTripMessage(t, m)
	if diff := deep.Equal(message.Message(m), back); diff != nil {
		t.Error("Graph record drifted:", diff)
	}
}
