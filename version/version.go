// Package version provides Bolt protocol version constants and string
// conversions for those constants.
package version

import (
	"encoding/binary"
	"fmt"
)

// Version encodes a major/minor protocol version pair in its low two bytes
// (minor << 8 | major).  The raw values happen to increase monotonically in
// protocol order, so numeric comparison is the ordering.
type Version = uint32

// Negotiable protocol versions.
const (
	V1_0 Version = 0x0001
	V2_0 Version = 0x0002
	V3_0 Version = 0x0003
	V4_0 Version = 0x0004
	V4_1 Version = 0x0104
	V4_2 Version = 0x0204
	V4_3 Version = 0x0304
	V4_4 Version = 0x0404
)

// None is the server's reply when no proposed version is acceptable.
const None Version = 0

var versionName = map[Version]string{
	V1_0: "1.0",
	V2_0: "2.0",
	V3_0: "3.0",
	V4_0: "4.0",
	V4_1: "4.1",
	V4_2: "4.2",
	V4_3: "4.3",
	V4_4: "4.4",
}

// String formats a version for humans.
func String(v Version) string {
	s, ok := versionName[v]
	if !ok {
		return fmt.Sprintf("UNKNOWN_VERSION_0x%08X", v)
	}
	return s
}

// Major returns the major component.
func Major(v Version) int {
	return int(v & 0xFF)
}

// Minor returns the minor component.
func Minor(v Version) int {
	return int(v >> 8 & 0xFF)
}

// Known reports whether v is one of the negotiable version constants.
func Known(v Version) bool {
	_, ok := versionName[v]
	return ok
}

// DefaultProposals is a reasonable handshake preference order for clients
// that have none of their own.
var DefaultProposals = [4]Version{V4_4, V4_3, V4_2, V4_0}

// ProposalBytes serializes four version proposals as big-endian u32s in
// preference order, as sent during the handshake.
func ProposalBytes(proposals [4]Version) []byte {
	buf := make([]byte, 16)
	for i, v := range proposals {
		binary.BigEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}
