// Package sim is a minimal in-memory harness that wires router.Node
// instances together over simulated links. It stands in for the
// discrete-event simulator described in spec §1 as an external
// collaborator (out of scope for this module) and exists only to drive
// convergence in tests and examples.
//
// Grounded on the teacher's main.go (a single process wiring one Router to
// one socket) generalized to many nodes, and on kprusa-olsr-simulation's
// Controller, which plays the same "centralized authority that a real
// network wouldn't have" role for a simulated topology.
package sim

import (
	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
)

// Network owns a set of router.Node instances and the links between them,
// and delivers packets a node Sends across whichever link is bound to the
// sending port.
type Network struct {
	nodes map[router.NodeID]router.Node
	links map[router.NodeID]map[router.Port]endpoint
	queue []queued
}

type endpoint struct {
	peer router.NodeID
	port router.Port
}

type queued struct {
	to   router.NodeID
	port router.Port
	pkt  packet.Packet
}

// New returns an empty Network.
func New() *Network {
	return &Network{
		nodes: make(map[router.NodeID]router.Node),
		links: make(map[router.NodeID]map[router.Port]endpoint),
	}
}

// AddNode registers a node under id. The node must already have been
// constructed with a Sender obtained from Sender(id).
func (nw *Network) AddNode(id router.NodeID, node router.Node) {
	nw.nodes[id] = node
	if nw.links[id] == nil {
		nw.links[id] = make(map[router.Port]endpoint)
	}
}

// Sender returns the router.Sender a node constructed for id must use, so
// that everything it Sends gets routed through this Network.
func (nw *Network) Sender(id router.NodeID) router.Sender {
	return &networkSender{network: nw, from: id}
}

// Link connects a's aPort to b's bPort with the given cost on both sides,
// and notifies both nodes via OnNewLink.
func (nw *Network) Link(a router.NodeID, aPort router.Port, b router.NodeID, bPort router.Port, cost router.Cost) {
	nw.links[a][aPort] = endpoint{peer: b, port: bPort}
	nw.links[b][bPort] = endpoint{peer: a, port: aPort}
	nw.nodes[a].OnNewLink(aPort, b, cost)
	nw.nodes[b].OnNewLink(bPort, a, cost)
}

// Unlink tears down the link bound to a's aPort/b's bPort and notifies both
// nodes via OnRemoveLink.
func (nw *Network) Unlink(a router.NodeID, aPort router.Port, b router.NodeID, bPort router.Port) {
	delete(nw.links[a], aPort)
	delete(nw.links[b], bPort)
	nw.nodes[a].OnRemoveLink(aPort)
	nw.nodes[b].OnRemoveLink(bPort)
}

// Tick drives every node's OnTick at timeMS, then flushes every resulting
// packet to its destination.
func (nw *Network) Tick(timeMS int64) {
	for _, node := range nw.nodes {
		node.OnTick(timeMS)
	}
	nw.Flush()
}

// Flush delivers every queued packet, including packets newly queued as a
// side effect of delivering an earlier one, until the queue is empty.
func (nw *Network) Flush() {
	for len(nw.queue) > 0 {
		next := nw.queue[0]
		nw.queue = nw.queue[1:]
		node, ok := nw.nodes[next.to]
		if !ok {
			continue
		}
		node.OnPacket(next.port, next.pkt)
	}
}

// networkSender adapts a single node's outgoing Sends into the shared
// Network queue, translating the sender's local port into the receiving
// node's local port via the link table.
type networkSender struct {
	network *Network
	from    router.NodeID
}

func (s *networkSender) Send(port router.Port, pkt packet.Packet) {
	end, ok := s.network.links[s.from][port]
	if !ok {
		return // port not bound to a live link; nothing to deliver
	}
	s.network.queue = append(s.network.queue, queued{to: end.peer, port: end.port, pkt: pkt})
}
