package message

import (
	"errors"

	"github.com/graphwire/bolt/packstream"
)

// ErrTrailingBytes is returned when a reassembled message buffer contains
// data past the end of the decoded message.
var ErrTrailingBytes = errors.New("trailing bytes after message")

// Marshal serializes a message to its PackStream bytes (marker, signature,
// fields), before framing.
func Marshal(m Message) ([]byte, error) {
	e := packstream.NewEncoder()
	fields := m.fields()
	if err := e.EncodeStructHeader(m.Signature(), len(fields)); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := e.Encode(f); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

// Unmarshal deserializes exactly one message from buf.  Signatures shared by
// several message kinds are resolved by field count.
func Unmarshal(buf []byte) (Message, error) {
	d := packstream.NewDecoder(buf)
	size, signature, err := d.StructHeader()
	if err != nil {
		return nil, err
	}
	fields := make([]packstream.Value, size)
	for i := 0; i < size; i++ {
		if fields[i], err = d.Decode(); err != nil {
			return nil, err
		}
	}
	if d.Remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	return build(signature, fields)
}

func build(signature byte, fields []packstream.Value) (Message, error) {
	size := len(fields)
	badSize := func() error {
		return packstream.InvalidSizeError{Size: size, Signature: signature}
	}
	switch signature {
	case SignatureInit:
		// HELLO has 1 field, INIT has 2.
		switch size {
		case 1:
			md, err := packstream.AsMap(fields[0])
			if err != nil {
				return nil, err
			}
			return Hello{Metadata: md}, nil
		case 2:
			name, err := packstream.AsString(fields[0])
			if err != nil {
				return nil, err
			}
			auth, err := packstream.AsMap(fields[1])
			if err != nil {
				return nil, err
			}
			return Init{ClientName: name, Auth: auth}, nil
		}
		return nil, badSize()
	case SignatureGoodbye:
		if size != 0 {
			return nil, badSize()
		}
		return Goodbye{}, nil
	case SignatureAckFailure:
		if size != 0 {
			return nil, badSize()
		}
		return AckFailure{}, nil
	case SignatureReset:
		if size != 0 {
			return nil, badSize()
		}
		return Reset{}, nil
	case SignatureRun:
		// RUN has 2 fields, RUN_WITH_METADATA has 3.
		switch size {
		case 2, 3:
			query, err := packstream.AsString(fields[0])
			if err != nil {
				return nil, err
			}
			params, err := packstream.AsMap(fields[1])
			if err != nil {
				return nil, err
			}
			if size == 2 {
				return Run{Query: query, Parameters: params}, nil
			}
			md, err := packstream.AsMap(fields[2])
			if err != nil {
				return nil, err
			}
			return RunWithMetadata{Query: query, Parameters: params, Metadata: md}, nil
		}
		return nil, badSize()
	case SignatureBegin:
		if size != 1 {
			return nil, badSize()
		}
		md, err := packstream.AsMap(fields[0])
		if err != nil {
			return nil, err
		}
		return Begin{Metadata: md}, nil
	case SignatureCommit:
		if size != 0 {
			return nil, badSize()
		}
		return Commit{}, nil
	case SignatureRollback:
		if size != 0 {
			return nil, badSize()
		}
		return Rollback{}, nil
	case SignatureDiscardAll:
		// DISCARD_ALL has 0 fields, DISCARD has 1.
		switch size {
		case 0:
			return DiscardAll{}, nil
		case 1:
			md, err := packstream.AsMap(fields[0])
			if err != nil {
				return nil, err
			}
			return Discard{Metadata: md}, nil
		}
		return nil, badSize()
	case SignaturePullAll:
		// PULL_ALL has 0 fields, PULL has 1.
		switch size {
		case 0:
			return PullAll{}, nil
		case 1:
			md, err := packstream.AsMap(fields[0])
			if err != nil {
				return nil, err
			}
			return Pull{Metadata: md}, nil
		}
		return nil, badSize()
	case SignatureRouteV43:
		if size != 3 {
			return nil, badSize()
		}
		ctx, bookmarks, err := routeFields(fields)
		if err != nil {
			return nil, err
		}
		return Route{Context: ctx, Bookmarks: bookmarks, Database: fields[2]}, nil
	case SignatureRouteV44:
		if size != 3 {
			return nil, badSize()
		}
		ctx, bookmarks, err := routeFields(fields)
		if err != nil {
			return nil, err
		}
		md, err := packstream.AsMap(fields[2])
		if err != nil {
			return nil, err
		}
		return RouteWithMetadata{Context: ctx, Bookmarks: bookmarks, Metadata: md}, nil
	case SignatureRecord:
		if size != 1 {
			return nil, badSize()
		}
		l, err := packstream.AsList(fields[0])
		if err != nil {
			return nil, err
		}
		return Record{Fields: l}, nil
	case SignatureSuccess:
		if size != 1 {
			return nil, badSize()
		}
		md, err := packstream.AsMap(fields[0])
		if err != nil {
			return nil, err
		}
		return Success{Metadata: md}, nil
	case SignatureFailure:
		if size != 1 {
			return nil, badSize()
		}
		md, err := packstream.AsMap(fields[0])
		if err != nil {
			return nil, err
		}
		return Failure{Metadata: md}, nil
	case SignatureIgnored:
		if size != 0 {
			return nil, badSize()
		}
		return Ignored{}, nil
	}
	return nil, packstream.InvalidSignatureError{Signature: signature}
}

func routeFields(fields []packstream.Value) (map[string]packstream.Value, []string, error) {
	ctx, err := packstream.AsMap(fields[0])
	if err != nil {
		return nil, nil, err
	}
	bookmarks, err := packstream.AsStringList(fields[1])
	if err != nil {
		return nil, nil, err
	}
	return ctx, bookmarks, nil
}
