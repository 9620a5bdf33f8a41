// Package message defines the Bolt request and summary messages and their
// PackStream representation.  Messages are structures whose signature byte
// names the kind; several signatures are shared across protocol versions and
// are told apart by field count.
package message

import (
	"fmt"

	"github.com/graphwire/bolt/packstream"
)

// Structure signature bytes for request messages.
const (
	SignatureInit            byte = 0x01
	SignatureGoodbye         byte = 0x02
	SignatureAckFailure      byte = 0x0E
	SignatureReset           byte = 0x0F
	SignatureRun             byte = 0x10
	SignatureBegin           byte = 0x11
	SignatureCommit          byte = 0x12
	SignatureRollback        byte = 0x13
	SignatureDiscardAll      byte = 0x2F
	SignaturePullAll         byte = 0x3F
	SignatureRouteV43        byte = 0x66
	SignatureRouteV44        byte = 0x60
	SignatureHello                = SignatureInit       // 1 field instead of 2
	SignatureRunWithMetadata      = SignatureRun        // 3 fields instead of 2
	SignatureDiscard              = SignatureDiscardAll // 1 field instead of 0
	SignaturePull                 = SignaturePullAll    // 1 field instead of 0
)

// Structure signature bytes for summary and detail messages.
const (
	SignatureSuccess byte = 0x70
	SignatureRecord  byte = 0x71
	SignatureIgnored byte = 0x7E
	SignatureFailure byte = 0x7F
)

// Message is a complete Bolt request or response.
type Message interface {
	// Signature returns the structure signature byte for this message.
	Signature() byte

	// fields returns the structure fields in wire order.
	fields() []packstream.Value
}

// ConversionError is returned when a message does not hold the requested
// variant.
type ConversionError struct {
	Message Message
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("invalid conversion from message %T", e.Message)
}

// Init requests a V1/V2 session.  ClientName identifies the client software;
// Auth carries at least a "scheme" entry.
type Init struct {
	ClientName string
	Auth       map[string]packstream.Value
}

func (m Init) Signature() byte { return SignatureInit }
func (m Init) fields() []packstream.Value {
	return []packstream.Value{m.ClientName, nonNilMap(m.Auth)}
}

// Hello requests a V3+ session.  Metadata must include "user_agent" plus the
// authentication entries.
type Hello struct {
	Metadata map[string]packstream.Value
}

func (m Hello) Signature() byte { return SignatureHello }
func (m Hello) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// Goodbye cleanly ends a V3+ session.  The server closes the connection
// without replying.
type Goodbye struct{}

func (m Goodbye) Signature() byte            { return SignatureGoodbye }
func (m Goodbye) fields() []packstream.Value { return nil }

// Run submits a V1/V2 query.
type Run struct {
	Query      string
	Parameters map[string]packstream.Value
}

func (m Run) Signature() byte { return SignatureRun }
func (m Run) fields() []packstream.Value {
	return []packstream.Value{m.Query, nonNilMap(m.Parameters)}
}

// RunWithMetadata submits a V3+ query.  Metadata may carry bookmarks,
// tx_timeout, tx_metadata, mode and (V4+) db.
type RunWithMetadata struct {
	Query      string
	Parameters map[string]packstream.Value
	Metadata   map[string]packstream.Value
}

func (m RunWithMetadata) Signature() byte { return SignatureRunWithMetadata }
func (m RunWithMetadata) fields() []packstream.Value {
	return []packstream.Value{m.Query, nonNilMap(m.Parameters), nonNilMap(m.Metadata)}
}

// DiscardAll drops the rest of the result stream (V1..V3).
type DiscardAll struct{}

func (m DiscardAll) Signature() byte            { return SignatureDiscardAll }
func (m DiscardAll) fields() []packstream.Value { return nil }

// Discard drops result records (V4+).  Metadata carries "n" (-1 for all) and
// optionally "qid".
type Discard struct {
	Metadata map[string]packstream.Value
}

func (m Discard) Signature() byte { return SignatureDiscard }
func (m Discard) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// PullAll fetches the whole result stream (V1..V3).
type PullAll struct{}

func (m PullAll) Signature() byte            { return SignaturePullAll }
func (m PullAll) fields() []packstream.Value { return nil }

// Pull fetches result records (V4+).  Metadata carries "n" (-1 for all) and
// optionally "qid".
type Pull struct {
	Metadata map[string]packstream.Value
}

func (m Pull) Signature() byte { return SignaturePull }
func (m Pull) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// AckFailure clears a V1/V2 failure.
type AckFailure struct{}

func (m AckFailure) Signature() byte            { return SignatureAckFailure }
func (m AckFailure) fields() []packstream.Value { return nil }

// Reset aborts in-flight work and returns the server to a ready state.
type Reset struct{}

func (m Reset) Signature() byte            { return SignatureReset }
func (m Reset) fields() []packstream.Value { return nil }

// Begin opens an explicit transaction (V3+).
type Begin struct {
	Metadata map[string]packstream.Value
}

func (m Begin) Signature() byte { return SignatureBegin }
func (m Begin) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// Commit commits an explicit transaction (V3+).
type Commit struct{}

func (m Commit) Signature() byte            { return SignatureCommit }
func (m Commit) fields() []packstream.Value { return nil }

// Rollback rolls back an explicit transaction (V3+).
type Rollback struct{}

func (m Rollback) Signature() byte            { return SignatureRollback }
func (m Rollback) fields() []packstream.Value { return nil }

// Route requests a routing table (V4.3 form: the third field is the database
// name or nil).
type Route struct {
	Context   map[string]packstream.Value
	Bookmarks []string
	Database  packstream.Value
}

func (m Route) Signature() byte { return SignatureRouteV43 }
func (m Route) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Context), nonNilStrings(m.Bookmarks), m.Database}
}

// RouteWithMetadata requests a routing table (V4.4 form: the third field is a
// metadata map).
type RouteWithMetadata struct {
	Context   map[string]packstream.Value
	Bookmarks []string
	Metadata  map[string]packstream.Value
}

func (m RouteWithMetadata) Signature() byte { return SignatureRouteV44 }
func (m RouteWithMetadata) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Context), nonNilStrings(m.Bookmarks), nonNilMap(m.Metadata)}
}

// Record is one row of a result stream.
type Record struct {
	Fields []packstream.Value
}

func (m Record) Signature() byte { return SignatureRecord }
func (m Record) fields() []packstream.Value {
	f := m.Fields
	if f == nil {
		f = []packstream.Value{}
	}
	return []packstream.Value{f}
}

// Success is the positive summary of a request.
type Success struct {
	Metadata map[string]packstream.Value
}

func (m Success) Signature() byte { return SignatureSuccess }
func (m Success) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// HasMore reports whether the result stream has records beyond the ones
// already pulled (V4+ "has_more" metadata).
func (m Success) HasMore() bool {
	more, ok := m.Metadata["has_more"].(bool)
	return ok && more
}

// Failure is the negative summary of a request.  It is data, not a Go error;
// the caller decides how to recover.
type Failure struct {
	Metadata map[string]packstream.Value
}

func (m Failure) Signature() byte { return SignatureFailure }
func (m Failure) fields() []packstream.Value {
	return []packstream.Value{nonNilMap(m.Metadata)}
}

// Code returns the server failure code, e.g.
// "Neo.ClientError.Statement.SyntaxError".
func (m Failure) Code() string {
	code, _ := m.Metadata["code"].(string)
	return code
}

// Text returns the human-readable failure message.
func (m Failure) Text() string {
	msg, _ := m.Metadata["message"].(string)
	return msg
}

// Ignored reports that the server skipped a request, usually because the
// connection is in a failed or interrupted state.
type Ignored struct{}

func (m Ignored) Signature() byte            { return SignatureIgnored }
func (m Ignored) fields() []packstream.Value { return nil }

// nonNilMap substitutes an empty map for nil so that optional metadata
// always serializes as a map, never as null.
func nonNilMap(m map[string]packstream.Value) map[string]packstream.Value {
	if m == nil {
		return map[string]packstream.Value{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
