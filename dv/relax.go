package dv

import "github.com/simnet/routercore/router"

// recompute performs one Bellman-Ford relaxation step over the current
// neighbor table and neighbor vectors (spec §4.2). It returns true iff the
// resulting own_dv or forward differ from the pre-step state.
func (n *Node) recompute() (changed bool) {
	candidates := n.candidateDestinations()

	newDV := map[router.NodeID]Cost{n.self: 0}
	newForward := make(map[router.NodeID]router.Port)

	neighbors := n.neighbors.Snapshot()

	for d := range candidates {
		if d == n.self {
			continue
		}

		best := inf
		var bestPort router.Port
		found := false

		for nb, entry := range neighbors {
			advertised, ok := n.neighborVectors[nb][d]
			if !ok {
				advertised = inf
			}
			candidate := addClamped(entry.Cost, advertised)
			if candidate < best {
				best = candidate
				bestPort = entry.Port
				found = true
			}
		}

		if found && best < inf {
			newDV[d] = best
			newForward[d] = bestPort
		}
	}

	changed = !mapsEqualCost(n.ownDV, newDV) || !mapsEqualPort(n.forward, newForward)
	n.ownDV = newDV
	n.forward = newForward
	return changed
}

// candidateDestinations builds D = {self} ∪ dom(own_dv) ∪ dom(N) ∪
// ⋃_n dom(V[n]).
func (n *Node) candidateDestinations() map[router.NodeID]struct{} {
	out := map[router.NodeID]struct{}{n.self: {}}
	for d := range n.ownDV {
		out[d] = struct{}{}
	}
	for nb := range n.neighbors.Snapshot() {
		out[nb] = struct{}{}
	}
	for _, vector := range n.neighborVectors {
		for d := range vector {
			out[d] = struct{}{}
		}
	}
	return out
}

// addClamped adds a link cost and an advertised cost, clamping the result
// (and any INF operand) to inf.
func addClamped(linkCost, advertised Cost) Cost {
	if linkCost >= inf || advertised >= inf {
		return inf
	}
	sum := linkCost + advertised
	if sum >= inf {
		return inf
	}
	return sum
}

func mapsEqualCost(a, b map[router.NodeID]Cost) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func mapsEqualPort(a, b map[router.NodeID]router.Port) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
