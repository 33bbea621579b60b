// Package session implements the control endpoint and the two session
// worker variants (producer, consumer) shared by the scheduler and the
// mo-broker (spec.md §4.1–§4.3). On producer sessions, routing and
// enqueueing are supplied by the caller through ProducerHandler below;
// consumer sessions pop directly from the queue pool they are given.
package session

import "github.com/typefo/lamb/internal/wire"

// Peer is one connected session's identity, carried from the control
// endpoint's handshake Request into the spawned session worker.
type Peer struct {
	ID   uint32
	Type wire.SessionType
	Addr string
}

// Result is what a spawned session worker reports back to the control
// endpoint once it has bound its session port (or failed to). It is
// delivered over a one-shot channel rather than a shared staging struct
// plus condition variable, per spec.md §9's design note.
type Result struct {
	Host string
	Err  error
}

// ProducerHandler processes frames received on a producer session
// (scheduler PUSH/TEST, mo-broker PUSH/TEST). It owns routing and enqueueing;
// the session loop only handles framing, timeouts, and BYE/unknown
// commands.
type ProducerHandler interface {
	// Accepts lists the command(s) this handler processes; anything else
	// is logged and discarded by the session loop.
	Accepts() []wire.Command

	// Handle processes one accepted frame. If sendAck is true, ack is
	// written back to the peer as a zero-payload frame. An error is
	// logged by the caller and does not end the session.
	Handle(cmd wire.Command, payload []byte) (ack wire.Command, sendAck bool, err error)
}
