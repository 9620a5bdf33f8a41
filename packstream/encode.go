package packstream

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encoder serializes values into an in-memory buffer.  Integers are always
// written in their smallest representation; servers compare exact byte
// encodings in some paths, so narrowing is not optional.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the serialized bytes accumulated so far.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes accumulated so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Marshal serializes a single value.
func Marshal(v Value) ([]byte, error) {
	e := NewEncoder()
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Encode appends one value to the buffer.
func (e *Encoder) Encode(v Value) error {
	switch val := v.(type) {
	case nil:
		e.buf.WriteByte(MarkerNull)
		return nil
	case bool:
		if val {
			e.buf.WriteByte(MarkerTrue)
		} else {
			e.buf.WriteByte(MarkerFalse)
		}
		return nil
	case int64:
		e.encodeInt(val)
		return nil
	case int:
		e.encodeInt(int64(val))
		return nil
	case int8:
		e.encodeInt(int64(val))
		return nil
	case int16:
		e.encodeInt(int64(val))
		return nil
	case int32:
		e.encodeInt(int64(val))
		return nil
	case uint8:
		e.encodeInt(int64(val))
		return nil
	case uint16:
		e.encodeInt(int64(val))
		return nil
	case uint32:
		e.encodeInt(int64(val))
		return nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return ConversionError{Value: v}
		}
		e.encodeInt(int64(val))
		return nil
	case uint64:
		if val > math.MaxInt64 {
			return ConversionError{Value: v}
		}
		e.encodeInt(int64(val))
		return nil
	case float64:
		e.buf.WriteByte(MarkerFloat)
		e.writeUint64(math.Float64bits(val))
		return nil
	case float32:
		e.buf.WriteByte(MarkerFloat)
		e.writeUint64(math.Float64bits(float64(val)))
		return nil
	case string:
		return e.encodeString(val)
	case []byte:
		return e.encodeBytes(val)
	case []Value:
		return e.encodeList(val)
	case []string:
		if err := e.encodeContainerHeader(MarkerTinyList, MarkerList8, int64(len(val))); err != nil {
			return err
		}
		for _, s := range val {
			if err := e.encodeString(s); err != nil {
				return err
			}
		}
		return nil
	case map[string]Value:
		return e.encodeMap(val)
	case map[string]string:
		if err := e.encodeContainerHeader(MarkerTinyMap, MarkerMap8, int64(len(val))); err != nil {
			return err
		}
		for k, s := range val {
			if err := e.encodeString(k); err != nil {
				return err
			}
			if err := e.encodeString(s); err != nil {
				return err
			}
		}
		return nil
	case Node:
		return e.encodeStruct(SignatureNode, val.ID, val.Labels, val.Properties)
	case Relationship:
		return e.encodeStruct(SignatureRelationship,
			val.ID, val.StartNodeID, val.EndNodeID, val.Type, val.Properties)
	case UnboundRelationship:
		return e.encodeStruct(SignatureUnboundRelationship, val.ID, val.Type, val.Properties)
	case Path:
		nodes := make([]Value, len(val.Nodes))
		for i := range val.Nodes {
			nodes[i] = val.Nodes[i]
		}
		rels := make([]Value, len(val.Relationships))
		for i := range val.Relationships {
			rels[i] = val.Relationships[i]
		}
		sequence := make([]Value, len(val.Sequence))
		for i := range val.Sequence {
			sequence[i] = val.Sequence[i]
		}
		return e.encodeStruct(SignaturePath, nodes, rels, sequence)
	case Date:
		return e.encodeStruct(SignatureDate, val.Days)
	case Time:
		return e.encodeStruct(SignatureTime, val.Nanos, val.OffsetSeconds)
	case LocalTime:
		return e.encodeStruct(SignatureLocalTime, val.Nanos)
	case LocalDateTime:
		return e.encodeStruct(SignatureLocalDateTime, val.Seconds, val.Nanos)
	case DateTimeOffset:
		return e.encodeStruct(SignatureDateTimeOffset, val.Seconds, val.Nanos, val.OffsetSeconds)
	case DateTimeZoned:
		return e.encodeStruct(SignatureDateTimeZoned, val.Seconds, val.Nanos, val.Zone)
	case Duration:
		return e.encodeStruct(SignatureDuration, val.Months, val.Days, val.Seconds, int64(val.Nanos))
	case Point2D:
		return e.encodeStruct(SignaturePoint2D, int64(val.SRID), val.X, val.Y)
	case Point3D:
		return e.encodeStruct(SignaturePoint3D, int64(val.SRID), val.X, val.Y, val.Z)
	default:
		return ConversionError{Value: v}
	}
}

// EncodeStructHeader writes a structure marker, field count and signature.
// The fields themselves are appended with Encode.
func (e *Encoder) EncodeStructHeader(signature byte, size int) error {
	switch {
	case size <= 15:
		e.buf.WriteByte(MarkerTinyStruct | byte(size))
	case size <= math.MaxUint8:
		e.buf.WriteByte(MarkerStruct8)
		e.buf.WriteByte(byte(size))
	case size <= math.MaxUint16:
		e.buf.WriteByte(MarkerStruct16)
		e.writeUint16(uint16(size))
	default:
		return ValueTooLargeError{Len: int64(size)}
	}
	e.buf.WriteByte(signature)
	return nil
}

func (e *Encoder) encodeStruct(signature byte, fields ...Value) error {
	if err := e.EncodeStructHeader(signature, len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := e.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeInt(n int64) {
	switch {
	case n >= MinTinyInt && n <= MaxTinyInt:
		e.buf.WriteByte(byte(n))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		e.buf.WriteByte(MarkerInt8)
		e.buf.WriteByte(byte(n))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		e.buf.WriteByte(MarkerInt16)
		e.writeUint16(uint16(n))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		e.buf.WriteByte(MarkerInt32)
		e.writeUint32(uint32(n))
	default:
		e.buf.WriteByte(MarkerInt64)
		e.writeUint64(uint64(n))
	}
}

func (e *Encoder) encodeString(s string) error {
	n := int64(len(s))
	if err := e.encodeContainerHeader(MarkerTinyString, MarkerString8, n); err != nil {
		return err
	}
	e.buf.WriteString(s)
	return nil
}

func (e *Encoder) encodeBytes(b []byte) error {
	n := int64(len(b))
	if n > maxBytesLength {
		return ValueTooLargeError{Len: n}
	}
	switch {
	case n <= math.MaxUint8:
		e.buf.WriteByte(MarkerBytes8)
		e.buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		e.buf.WriteByte(MarkerBytes16)
		e.writeUint16(uint16(n))
	default:
		e.buf.WriteByte(MarkerBytes32)
		e.writeUint32(uint32(n))
	}
	e.buf.Write(b)
	return nil
}

func (e *Encoder) encodeList(l []Value) error {
	if err := e.encodeContainerHeader(MarkerTinyList, MarkerList8, int64(len(l))); err != nil {
		return err
	}
	for _, v := range l {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMap(m map[string]Value) error {
	if err := e.encodeContainerHeader(MarkerTinyMap, MarkerMap8, int64(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := e.encodeString(k); err != nil {
			return err
		}
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// encodeContainerHeader writes the marker and length for a string, list or
// map.  tiny is the tiny-form base marker, and eight the 8-bit form; the 16
// and 32 bit forms follow it numerically.
func (e *Encoder) encodeContainerHeader(tiny, eight byte, n int64) error {
	switch {
	case n <= 15:
		e.buf.WriteByte(tiny | byte(n))
	case n <= math.MaxUint8:
		e.buf.WriteByte(eight)
		e.buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		e.buf.WriteByte(eight + 1)
		e.writeUint16(uint16(n))
	case n <= maxContainerLength:
		e.buf.WriteByte(eight + 2)
		e.writeUint32(uint32(n))
	default:
		return ValueTooLargeError{Len: n}
	}
	return nil
}

func (e *Encoder) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}
