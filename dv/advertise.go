package dv

import (
	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
)

// broadcastAll sends the current advertised vector (with poisoned reverse)
// to every live neighbor.
func (n *Node) broadcastAll() {
	for id := range n.neighbors.Snapshot() {
		n.sendTo(id)
	}
}

// sendTo builds and transmits the advertised vector for a single neighbor.
func (n *Node) sendTo(m router.NodeID) {
	entry, ok := n.neighbors.Get(m)
	if !ok {
		return
	}

	vector := n.buildAdvertisedVector(m)
	content := packet.EncodeDV(vector)

	n.sender.Send(entry.Port, packet.Packet{
		Kind:    packet.Routing,
		Src:     string(n.self),
		Dst:     string(m),
		Content: content,
	})
}

// buildAdvertisedVector applies split-horizon/poisoned-reverse for the
// neighbor reached via port: any destination whose next hop is that port
// (other than m itself) is advertised as unreachable.
func (n *Node) buildAdvertisedVector(m router.NodeID) map[string]int {
	entry, _ := n.neighbors.Get(m)

	out := make(map[string]int, len(n.ownDV))
	for d, c := range n.ownDV {
		cost := c
		if fwdPort, routed := n.forward[d]; routed && fwdPort == entry.Port && d != m {
			cost = inf
		}
		out[string(d)] = int(cost)
	}
	return out
}
