// Package neighbor implements the neighbor table shared by both protocol
// families: a bijective mapping between a node's live ports and the
// adjacent node id (and cost) bound to each one. Grounded on
// routing/neighbortable.go of the teacher repo, generalized from a single
// netip.Addr-keyed map to a generic, protocol-agnostic table so dv and ls
// do not each reimplement the port<->neighbor bijection invariant.
package neighbor

import "github.com/simnet/routercore/router"

// Entry is one neighbor's local port and declared link cost.
type Entry[C any] struct {
	Port router.Port
	Cost C
}

// Table maps neighbor NodeID to Entry and enforces that a port binds at
// most one neighbor at a time (spec §3's neighbor-entry invariant).
type Table[C any] struct {
	byID   map[router.NodeID]Entry[C]
	byPort map[router.Port]router.NodeID
}

// New creates an empty neighbor table.
func New[C any]() *Table[C] {
	return &Table[C]{
		byID:   make(map[router.NodeID]Entry[C]),
		byPort: make(map[router.Port]router.NodeID),
	}
}

// Add registers a new neighbor on port with the given cost. The caller must
// ensure port was previously unbound (the on_new_link precondition).
func (t *Table[C]) Add(id router.NodeID, port router.Port, cost C) {
	if prev, bound := t.byPort[port]; bound && prev != id {
		delete(t.byID, prev)
	}
	if old, known := t.byID[id]; known && old.Port != port {
		delete(t.byPort, old.Port)
	}
	t.byID[id] = Entry[C]{Port: port, Cost: cost}
	t.byPort[port] = id
}

// RemoveByPort removes the neighbor bound to port, if any, returning it.
// Idempotent: a second call for the same port is a no-op returning ok=false.
func (t *Table[C]) RemoveByPort(port router.Port) (id router.NodeID, entry Entry[C], ok bool) {
	id, ok = t.byPort[port]
	if !ok {
		return "", Entry[C]{}, false
	}
	entry = t.byID[id]
	delete(t.byID, id)
	delete(t.byPort, port)
	return id, entry, true
}

// Get looks up a neighbor by id.
func (t *Table[C]) Get(id router.NodeID) (Entry[C], bool) {
	e, ok := t.byID[id]
	return e, ok
}

// ByPort looks up the neighbor id bound to port.
func (t *Table[C]) ByPort(port router.Port) (router.NodeID, bool) {
	id, ok := t.byPort[port]
	return id, ok
}

// Snapshot returns a shallow copy of the current neighbor->entry map, safe
// for the caller to range over while this table continues mutating.
func (t *Table[C]) Snapshot() map[router.NodeID]Entry[C] {
	out := make(map[router.NodeID]Entry[C], len(t.byID))
	for id, e := range t.byID {
		out[id] = e
	}
	return out
}

// Len reports the number of live neighbors.
func (t *Table[C]) Len() int {
	return len(t.byID)
}
