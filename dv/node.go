// Package dv implements the Distance-Vector protocol family: a RIP-style
// node that relaxes neighbor-advertised vectors with one Bellman-Ford step
// per recompute and advertises with split-horizon/poisoned-reverse.
//
// Grounded on the teacher's legacy distance-vector table
// (routing/table.go's RoutingTable.Update, which increments hop counts and
// purges entries learned through a now-silent neighbor) generalized into a
// full relaxation + poisoned-reverse node, cross-checked against the RIP
// shape in other_examples/f2ce951a_..._rip_emulator.go.go.
package dv

import (
	"maps"
	"sync"

	"github.com/simnet/routercore/common"
	"github.com/simnet/routercore/neighbor"
	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
	"github.com/simnet/routercore/util/assert"
	"github.com/simnet/routercore/util/logger"
)

// Cost is a router.Cost clamped to [0, common.InfCost]. A cost of
// common.InfCost means unreachable and is never stored in own_dv.
type Cost = router.Cost

const inf Cost = common.InfCost

// Node is a Distance-Vector router.Node implementation.
type Node struct {
	mu sync.Mutex

	self          router.NodeID
	heartbeatMS   int64
	lastBroadcast int64
	sender        router.Sender

	neighbors       *neighbor.Table[Cost]
	ownDV           map[router.NodeID]Cost
	forward         map[router.NodeID]router.Port
	neighborVectors map[router.NodeID]map[router.NodeID]Cost
}

// New constructs a DV node. heartbeatMS must be positive.
func New(self router.NodeID, heartbeatMS int64, sender router.Sender) *Node {
	assert.Assert(heartbeatMS > 0, "heartbeatMS must be positive, got %d", heartbeatMS)
	return &Node{
		self:            self,
		heartbeatMS:     heartbeatMS,
		sender:          sender,
		neighbors:       neighbor.New[Cost](),
		ownDV:           map[router.NodeID]Cost{self: 0},
		forward:         make(map[router.NodeID]router.Port),
		neighborVectors: make(map[router.NodeID]map[router.NodeID]Cost),
	}
}

// ForwardingTable returns a snapshot of the current destination->port table.
func (n *Node) ForwardingTable() map[router.NodeID]router.Port {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[router.NodeID]router.Port, len(n.forward))
	maps.Copy(out, n.forward)
	return out
}

// OwnVector returns a snapshot of the node's own distance vector.
func (n *Node) OwnVector() map[router.NodeID]Cost {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[router.NodeID]Cost, len(n.ownDV))
	maps.Copy(out, n.ownDV)
	return out
}

// OnNewLink registers a new neighbor and reacts per spec §4.2.
func (n *Node) OnNewLink(port router.Port, endpoint router.NodeID, cost router.Cost) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.neighbors.Add(endpoint, port, clamp(cost))
	if _, ok := n.neighborVectors[endpoint]; !ok {
		n.neighborVectors[endpoint] = map[router.NodeID]Cost{endpoint: 0}
	}

	changed := n.recompute()
	if changed {
		n.broadcastAll()
	} else {
		n.sendTo(endpoint)
	}
}

// OnRemoveLink tears down the neighbor bound to port, if any.
func (n *Node) OnRemoveLink(port router.Port) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id, _, ok := n.neighbors.RemoveByPort(port)
	if !ok {
		return // NoOpEvent
	}
	delete(n.neighborVectors, id)

	// Purge forward/own_dv entries that routed through the removed port
	// before recomputing, so a skipped recompute can never leave a stale
	// forwarding entry (spec §9 Open Question resolution).
	for d, p := range n.forward {
		if p == port {
			delete(n.forward, d)
			delete(n.ownDV, d)
		}
	}

	changed := n.recompute()
	if changed {
		n.broadcastAll()
	}
}

// OnPacket dispatches an inbound packet.
func (n *Node) OnPacket(port router.Port, pkt packet.Packet) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if pkt.Kind == packet.Data {
		n.forwardData(pkt)
		return
	}

	n.handleRoutingPacket(port, pkt)
}

func (n *Node) forwardData(pkt packet.Packet) {
	dst := router.NodeID(pkt.Dst)
	p, ok := n.forward[dst]
	if !ok {
		return // UnroutableData
	}
	n.sender.Send(p, pkt)
}

func (n *Node) handleRoutingPacket(port router.Port, pkt packet.Packet) {
	sender := router.NodeID(pkt.Src)

	entry, isNeighbor := n.neighbors.Get(sender)
	if !isNeighbor || entry.Port != port {
		logger.Debugf("%s: dropping routing packet from stranger %s on port %d", n.self, sender, port)
		return // StrangerPacket
	}

	wire, err := packet.DecodeDV(pkt.Content)
	if err != nil {
		logger.Debugf("%s: dropping malformed DV packet from %s: %v", n.self, sender, err)
		return // MalformedPacket
	}

	sanitized := sanitize(wire)
	if maps.Equal(sanitized, n.neighborVectors[sender]) {
		return // identical to what's stored: skip the recompute path
	}
	n.neighborVectors[sender] = sanitized

	if n.recompute() {
		n.broadcastAll()
	}
}

// OnTick broadcasts unconditionally at heartbeat boundaries, regardless of
// whether state changed (spec §9 Open Question: unconditional variant).
func (n *Node) OnTick(timeMS int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timeMS < n.lastBroadcast+n.heartbeatMS {
		return
	}
	n.lastBroadcast = timeMS
	n.broadcastAll()
}

// clamp enforces the DV cost invariant: costs are non-negative and bounded
// by common.InfCost.
func clamp(c router.Cost) Cost {
	if c < 0 || c >= inf {
		return inf
	}
	return c
}

// sanitize applies spec §4.2's per-entry sanitization to an inbound vector.
func sanitize(wire map[string]int) map[router.NodeID]Cost {
	out := make(map[router.NodeID]Cost, len(wire))
	for d, c := range wire {
		out[router.NodeID(d)] = clamp(router.Cost(c))
	}
	return out
}
