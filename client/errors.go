package client

import (
	"fmt"

	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/version"
)

// HandshakeError is returned when the server rejects every proposed version
// or replies with a version that was not proposed.
type HandshakeError struct {
	Proposals [4]version.Version
}

func (e HandshakeError) Error() string {
	return fmt.Sprintf("handshake with server failed (proposed %s, %s, %s, %s)",
		version.String(e.Proposals[0]), version.String(e.Proposals[1]),
		version.String(e.Proposals[2]), version.String(e.Proposals[3]))
}

// UnsupportedOperationError is returned when an operation is invoked on a
// protocol version that does not define it.  No I/O has been performed.
type UnsupportedOperationError struct {
	Version version.Version
}

func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation for Bolt v%s", version.String(e.Version))
}

// InvalidStateError is returned when a message may not be sent in the current
// server state.  No I/O has been performed.
type InvalidStateError struct {
	State   state.State
	Message message.Message
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("message %s is not allowed in server state %s",
		message.Name(e.Message), e.State)
}
