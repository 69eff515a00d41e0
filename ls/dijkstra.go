package ls

import (
	"container/heap"
	"math"

	"github.com/simnet/routercore/router"
)

// dijkstraNode is one destination's current best-known distance and the
// port of the first hop that earned it, tracked with a heap index so
// relaxation can update it in place. Grounded on the teacher's
// DijkstraNode/dijkstraPriorityQueue (routing/routingtable.go):
// next-hop is propagated through relaxation from the originating direct
// neighbor rather than reconstructed afterward by a predecessor walk, which
// is what keeps a destination only reachable through a chain of nodes that
// are *currently* claiming each other as neighbors.
type dijkstraNode struct {
	id      router.NodeID
	nextHop router.Port
	hasHop  bool
	dist    int
	index   int
}

type dijkstraQueue []*dijkstraNode

func (q dijkstraQueue) Len() int           { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q dijkstraQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *dijkstraQueue) Push(x any) {
	node := x.(*dijkstraNode)
	node.index = len(*q)
	*q = append(*q, node)
}

func (q *dijkstraQueue) Pop() any {
	old := *q
	last := len(old) - 1
	item := old[last]
	old[last] = nil
	item.index = -1
	*q = old[:last]
	return item
}

func (q *dijkstraQueue) update(node *dijkstraNode, dist int, port router.Port) {
	node.dist = dist
	node.nextHop = port
	node.hasHop = true
	heap.Fix(q, node.index)
}

// recompute runs Dijkstra from self over the LSDB and replaces forward.
//
// Every lsdb-known destination is seeded at infinity unless it is a live
// direct neighbor. Relaxation only ever follows a popped node's own
// self-claimed links (lsdb[poppedID].Links) — never a merged, symmetrized
// view of the whole database — so a destination only becomes reachable by
// being claimed as a neighbor by some node already proven reachable. This
// is what makes a stale, never-deleted LSDB row for a now-unreachable
// origin drop out of Dijkstra reachability on the very next recompute
// instead of lingering as a phantom edge: see DESIGN.md for why the
// textbook "symmetric min-cost merge" reading of an undirected graph does
// not, on its own, satisfy spec §8's split-topology convergence property.
func (n *Node) recompute() {
	nodes := make(map[router.NodeID]*dijkstraNode)
	pq := &dijkstraQueue{}
	heap.Init(pq)

	addCandidate := func(id router.NodeID) *dijkstraNode {
		if node, ok := nodes[id]; ok {
			return node
		}
		node := &dijkstraNode{id: id, dist: math.MaxInt}
		if entry, isNeighbor := n.neighbors.Get(id); isNeighbor {
			node.dist = int(entry.Cost)
			node.nextHop = entry.Port
			node.hasHop = true
		}
		nodes[id] = node
		heap.Push(pq, node)
		return node
	}

	for origin := range n.lsdb {
		if origin == n.self {
			continue
		}
		addCandidate(origin)
	}
	for id := range n.neighbors.Snapshot() {
		addCandidate(id)
	}

	forward := make(map[router.NodeID]router.Port)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*dijkstraNode)
		if current.dist == math.MaxInt {
			continue // unreachable; everything left in the queue is too
		}
		if current.hasHop {
			forward[current.id] = current.nextHop
		}

		for nb, cost := range n.lsdb[current.id].Links {
			if nb == n.self {
				continue
			}
			neighborNode, known := nodes[nb]
			if !known {
				continue // not (yet) locally known; resolved on a later recompute
			}
			candidate := current.dist + int(cost)
			if candidate < neighborNode.dist {
				pq.update(neighborNode, candidate, current.nextHop)
			}
		}
	}

	n.forward = forward
}
