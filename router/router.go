// Package router defines the event-driven surface shared by both protocol
// families, and the narrow interface through which a simulator delivers
// packets and drives ticks. The simulator, transport packet framing, and
// CLI/visualizer live outside this module; Node and Sender are the only
// points of contact with them.
package router

import "github.com/simnet/routercore/packet"

// NodeID is an opaque node identifier. Two identifiers are equal iff
// byte-equal.
type NodeID string

// Port is a small non-negative port number. Each port binds at most one
// live link at a time.
type Port int

// Cost is a non-negative link or path cost. DV clamps costs to
// common.InfCost; LS leaves costs unbounded.
type Cost int

// Sender is implemented by the simulator and used by a Node to emit packets.
// A packet handed to Send is considered transferred; the sender must not
// mutate it afterward.
type Sender interface {
	Send(port Port, pkt packet.Packet)
}

// Node is the event-driven contract every router implementation (DV or LS)
// exposes to the simulator. Handlers run to completion without suspending
// and must remain bounded by the node's neighbor/LSDB/destination set size.
type Node interface {
	// OnPacket dispatches an inbound packet received on port.
	OnPacket(port Port, pkt packet.Packet)

	// OnNewLink registers a new live link on port to endpoint with the given
	// cost. The port was previously unbound.
	OnNewLink(port Port, endpoint NodeID, cost Cost)

	// OnRemoveLink tears down the link bound to port, if any. It is a no-op
	// if port is already unbound.
	OnRemoveLink(port Port)

	// OnTick notifies the node of the current simulated time. Time is
	// monotonic non-decreasing but may skip; a heartbeat fires whenever
	// timeMs >= lastBroadcast+period.
	OnTick(timeMs int64)
}
