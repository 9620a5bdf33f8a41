// Package state provides Bolt server state constants and string conversions
// for those constants.
package state

import "fmt"

// State is the enumeration of server-visible connection states.  The client
// tracks the server's state locally to reject illegal requests before any
// bytes hit the wire.
type State int32

// These names come from the Bolt protocol specification.
const (
	Disconnected State = 0
	Connected    State = 1
	Defunct      State = 2
	Ready        State = 3
	Streaming    State = 4
	TxReady      State = 5
	TxStreaming  State = 6
	Failed       State = 7
	Interrupted  State = 8
)

var stateName = map[State]string{
	0: "DISCONNECTED",
	1: "CONNECTED",
	2: "DEFUNCT",
	3: "READY",
	4: "STREAMING",
	5: "TX_READY",
	6: "TX_STREAMING",
	7: "FAILED",
	8: "INTERRUPTED",
}

func (x State) String() string {
	s, ok := stateName[x]
	if !ok {
		return fmt.Sprintf("UNKNOWN_STATE_%d", x)
	}
	return s
}
