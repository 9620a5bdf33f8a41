package message_test

import (
	"testing"

	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
)

func TestMessageConversions(t *testing.T) {
	success := message.Success{Metadata: map[string]packstream.Value{"t": int64(1)}}
	if _, err := message.AsSuccess(success); err != nil {
		t.Error("AsSuccess(Success) failed:", err)
	}
	if _, err := message.AsSuccess(message.Ignored{}); err == nil {
		t.Error("AsSuccess(Ignored) should fail")
	}

	failure := message.Failure{Metadata: map[string]packstream.Value{"code": "x"}}
	if _, err := message.AsFailure(failure); err != nil {
		t.Error("AsFailure(Failure) failed:", err)
	}
	_, err := message.AsFailure(success)
	cerr, ok := err.(message.ConversionError)
	if !ok {
		t.Fatalf("Expected ConversionError, got %T", err)
	}
	if _, ok := cerr.Message.(message.Success); !ok {
		t.Error("ConversionError should carry the offending message")
	}

	record := message.Record{Fields: []packstream.Value{int64(1)}}
	if _, err := message.AsRecord(record); err != nil {
		t.Error("AsRecord(Record) failed:", err)
	}
	if _, err := message.AsRecord(failure); err == nil {
		t.Error("AsRecord(Failure) should fail")
	}
}
