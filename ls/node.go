// Package ls implements the Link-State protocol family: a minimal
// OSPF-style node that floods its own adjacencies as an LSP, maintains a
// link-state database keyed by originator, and recomputes shortest paths
// with Dijkstra whenever the database changes.
//
// Grounded on the teacher's routing.Router: routing/lsdb.go's sequence
// discipline and flooding, and routing/routingtable.go's heap-based
// Dijkstra with in-place heap.Fix updates (reused here in shape, generalized
// from netip.Addr/netip.AddrPort to opaque router.NodeID/router.Port).
package ls

import (
	"maps"
	"sync"

	"github.com/simnet/routercore/neighbor"
	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
	"github.com/simnet/routercore/util/assert"
	"github.com/simnet/routercore/util/logger"
)

// Cost is an unbounded non-negative path cost, unlike dv.Cost which is
// clamped to common.InfCost.
type Cost = router.Cost

// LSP is one originator's advertised adjacency set, tagged with a sequence
// number.
type LSP struct {
	Seq   int
	Links map[router.NodeID]Cost
}

// Node is a Link-State router.Node implementation.
type Node struct {
	mu sync.Mutex

	self          router.NodeID
	heartbeatMS   int64
	lastBroadcast int64
	sender        router.Sender

	neighbors *neighbor.Table[Cost]
	lsdb      map[router.NodeID]LSP
	ownSeq    int
	forward   map[router.NodeID]router.Port
}

// New constructs an LS node. heartbeatMS must be positive.
func New(self router.NodeID, heartbeatMS int64, sender router.Sender) *Node {
	assert.Assert(heartbeatMS > 0, "heartbeatMS must be positive, got %d", heartbeatMS)
	n := &Node{
		self:        self,
		heartbeatMS: heartbeatMS,
		sender:      sender,
		neighbors:   neighbor.New[Cost](),
		lsdb:        make(map[router.NodeID]LSP),
		forward:     make(map[router.NodeID]router.Port),
	}
	n.lsdb[self] = LSP{Seq: 0, Links: map[router.NodeID]Cost{}}
	return n
}

// ForwardingTable returns a snapshot of the current destination->port table.
func (n *Node) ForwardingTable() map[router.NodeID]router.Port {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[router.NodeID]router.Port, len(n.forward))
	maps.Copy(out, n.forward)
	return out
}

// LSDB returns a snapshot of the link-state database.
func (n *Node) LSDB() map[router.NodeID]LSP {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[router.NodeID]LSP, len(n.lsdb))
	for origin, lsp := range n.lsdb {
		links := make(map[router.NodeID]Cost, len(lsp.Links))
		maps.Copy(links, lsp.Links)
		out[origin] = LSP{Seq: lsp.Seq, Links: links}
	}
	return out
}

// OnNewLink registers a new neighbor, bumps own_seq, and floods the node's
// own LSP unconditionally.
func (n *Node) OnNewLink(port router.Port, endpoint router.NodeID, cost router.Cost) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.neighbors.Add(endpoint, port, cost)
	n.bumpOwnLSP()
	n.recompute()
	n.broadcastOwnLSP()
}

// OnRemoveLink tears down the neighbor bound to port, if any, and floods
// the updated own LSP.
func (n *Node) OnRemoveLink(port router.Port) {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, _, ok := n.neighbors.RemoveByPort(port)
	if !ok {
		return // NoOpEvent
	}

	n.bumpOwnLSP()
	n.recompute()
	n.broadcastOwnLSP()
}

// OnPacket dispatches an inbound packet.
func (n *Node) OnPacket(port router.Port, pkt packet.Packet) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if pkt.Kind == packet.Data {
		n.forwardData(pkt)
		return
	}

	n.handleLSP(port, pkt)
}

func (n *Node) forwardData(pkt packet.Packet) {
	dst := router.NodeID(pkt.Dst)
	p, ok := n.forward[dst]
	if !ok {
		return // UnroutableData
	}
	n.sender.Send(p, pkt)
}

func (n *Node) handleLSP(inboundPort router.Port, pkt packet.Packet) {
	originStr, seq, links, err := packet.DecodeLS(pkt.Content)
	if err != nil {
		logger.Debugf("%s: dropping malformed LSP on port %d: %v", n.self, inboundPort, err)
		return // MalformedPacket
	}
	origin := router.NodeID(originStr)

	stored, exists := n.lsdb[origin]
	if exists && seq <= stored.Seq {
		logger.Debugf("%s: dropping stale LSP from %s (seq %d <= stored %d)", n.self, origin, seq, stored.Seq)
		return // StaleLSP: drop, do not forward
	}

	costLinks := make(map[router.NodeID]Cost, len(links))
	for id, c := range links {
		costLinks[router.NodeID(id)] = Cost(c)
	}
	n.lsdb[origin] = LSP{Seq: seq, Links: costLinks}

	n.recompute()
	n.floodExcept(pkt, inboundPort)
}

// bumpOwnLSP increments own_seq and rewrites lsdb[self] from the current
// neighbor table.
func (n *Node) bumpOwnLSP() {
	n.ownSeq++
	links := make(map[router.NodeID]Cost, n.neighbors.Len())
	for id, entry := range n.neighbors.Snapshot() {
		links[id] = entry.Cost
	}
	n.lsdb[n.self] = LSP{Seq: n.ownSeq, Links: links}
}

// OnTick broadcasts the node's own LSP at heartbeat boundaries. The
// sequence number is unchanged unless topology changed since the last send.
func (n *Node) OnTick(timeMS int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timeMS < n.lastBroadcast+n.heartbeatMS {
		return
	}
	n.lastBroadcast = timeMS
	n.broadcastOwnLSP()
}
