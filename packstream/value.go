// Package packstream implements the PackStream binary serialization format:
// a self-describing, marker-prefixed encoding for primitives, containers and
// tagged structures.  It is the value layer underneath the Bolt protocol.
package packstream

import "fmt"

// Value is any value expressible in PackStream.  The decoder produces one of:
//
//	nil, bool, int64, float64, string, []byte,
//	[]Value, map[string]Value,
//	Node, Relationship, UnboundRelationship, Path,
//	Date, Time, LocalTime, LocalDateTime, DateTimeOffset, DateTimeZoned,
//	Duration, Point2D, Point3D
//
// The encoder additionally accepts all Go integer and float widths, []string,
// and map[string]string, narrowing them to the wire representations above.
type Value = interface{}

// Node is a graph vertex.
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]Value
}

// Relationship is a directed edge between two nodes.
type Relationship struct {
	ID          int64
	StartNodeID int64
	EndNodeID   int64
	Type        string
	Properties  map[string]Value
}

// UnboundRelationship is an edge inside a Path; its endpoints are implied by
// the path sequence.
type UnboundRelationship struct {
	ID         int64
	Type       string
	Properties map[string]Value
}

// Path is an alternating sequence of nodes and relationships.  Nodes and
// relationships are referenced from Sequence by index, not by pointer.
type Path struct {
	Nodes         []Node
	Relationships []UnboundRelationship

	// Sequence holds (rel_slot, node_index) pairs.  |rel_slot| is a 1-based
	// index into Relationships, and a negative sign means the relationship is
	// traversed from end to start.  node_index is a 0-based index into Nodes.
	// The first node of the path is Nodes[0].
	Sequence []int64
}

// Segment is one expanded step of a Path.
type Segment struct {
	Start        Node
	Relationship UnboundRelationship
	// Reversed is true when the relationship is traversed end-to-start.
	Reversed bool
	End      Node
}

// Segments expands the path sequence into (start, rel, end) triples,
// validating that every index is in bounds.  Signs are reported, never
// altered.
func (p Path) Segments() ([]Segment, error) {
	if len(p.Sequence)%2 != 0 {
		return nil, fmt.Errorf("path sequence has odd length %d", len(p.Sequence))
	}
	if len(p.Nodes) == 0 {
		if len(p.Sequence) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("path sequence is nonempty but the path has no nodes")
	}
	segments := make([]Segment, 0, len(p.Sequence)/2)
	prev := p.Nodes[0]
	for i := 0; i < len(p.Sequence); i += 2 {
		relSlot, nodeIndex := p.Sequence[i], p.Sequence[i+1]
		reversed := relSlot < 0
		if reversed {
			relSlot = -relSlot
		}
		if relSlot < 1 || relSlot > int64(len(p.Relationships)) {
			return nil, fmt.Errorf("path relationship slot %d out of range [1, %d]", p.Sequence[i], len(p.Relationships))
		}
		if nodeIndex < 0 || nodeIndex >= int64(len(p.Nodes)) {
			return nil, fmt.Errorf("path node index %d out of range [0, %d)", nodeIndex, len(p.Nodes))
		}
		next := p.Nodes[nodeIndex]
		segments = append(segments, Segment{
			Start:        prev,
			Relationship: p.Relationships[relSlot-1],
			Reversed:     reversed,
			End:          next,
		})
		prev = next
	}
	return segments, nil
}

// AsBool converts v to a bool.
func AsBool(v Value) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, ConversionError{Value: v}
	}
	return b, nil
}

// AsInt converts v to an int64.
func AsInt(v Value) (int64, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, ConversionError{Value: v}
	}
	return i, nil
}

// AsFloat converts v to a float64.
func AsFloat(v Value) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, ConversionError{Value: v}
	}
	return f, nil
}

// AsString converts v to a string.
func AsString(v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ConversionError{Value: v}
	}
	return s, nil
}

// AsBytes converts v to a byte slice.
func AsBytes(v Value) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, ConversionError{Value: v}
	}
	return b, nil
}

// AsList converts v to a list.
func AsList(v Value) ([]Value, error) {
	l, ok := v.([]Value)
	if !ok {
		return nil, ConversionError{Value: v}
	}
	return l, nil
}

// AsMap converts v to a map.
func AsMap(v Value) (map[string]Value, error) {
	m, ok := v.(map[string]Value)
	if !ok {
		return nil, ConversionError{Value: v}
	}
	return m, nil
}

// AsStringList converts a list value whose elements are all strings.
func AsStringList(v Value) ([]string, error) {
	l, err := AsList(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(l))
	for i := range l {
		s, err := AsString(l[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
