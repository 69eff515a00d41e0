package ls

import (
	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
)

// broadcastOwnLSP encodes and floods this node's own LSP to every neighbor.
func (n *Node) broadcastOwnLSP() {
	own := n.lsdb[n.self]
	links := make(map[string]int, len(own.Links))
	for id, c := range own.Links {
		links[string(id)] = int(c)
	}
	content := packet.EncodeLS(string(n.self), own.Seq, links)

	for id, entry := range n.neighbors.Snapshot() {
		n.sender.Send(entry.Port, packet.Packet{
			Kind:    packet.Routing,
			Src:     string(n.self),
			Dst:     string(id),
			Content: content,
		})
	}
}

// floodExcept forwards the exact received LSP payload to every neighbor
// except the one reached through exceptPort (the inbound port), per spec
// §4.3: "forward to every neighbor except the inbound port using the exact
// received payload (no re-encoding required)".
func (n *Node) floodExcept(pkt packet.Packet, exceptPort router.Port) {
	for id, entry := range n.neighbors.Snapshot() {
		if entry.Port == exceptPort {
			continue
		}
		n.sender.Send(entry.Port, packet.Packet{
			Kind:    packet.Routing,
			Src:     string(n.self),
			Dst:     string(id),
			Content: pkt.Content,
		})
	}
}
