package dv

import (
	"testing"

	"github.com/simnet/routercore/packet"
	"github.com/simnet/routercore/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records every packet handed to Send, keyed by destination port.
type fakeSender struct {
	sent []sentPacket
}

type sentPacket struct {
	port router.Port
	pkt  packet.Packet
}

func (f *fakeSender) Send(port router.Port, pkt packet.Packet) {
	f.sent = append(f.sent, sentPacket{port: port, pkt: pkt})
}

func (f *fakeSender) last(port router.Port) (packet.Packet, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].port == port {
			return f.sent[i].pkt, true
		}
	}
	return packet.Packet{}, false
}

func (f *fakeSender) reset() {
	f.sent = nil
}

func decodeVector(t *testing.T, pkt packet.Packet) map[string]int {
	t.Helper()
	v, err := packet.DecodeDV(pkt.Content)
	require.NoError(t, err)
	return v
}

func TestOnNewLink_SeedsVectorAndRecomputes(t *testing.T) {
	sender := &fakeSender{}
	n := New("A", 1000, sender)

	n.OnNewLink(1, "B", 5)

	assert.Equal(t, map[router.NodeID]Cost{"A": 0, "B": 5}, n.OwnVector())
	assert.Equal(t, map[router.NodeID]router.Port{"B": 1}, n.ForwardingTable())
}

func TestChainConverges(t *testing.T) {
	// A - B - C - D, all link costs 1.
	senderA, senderB, senderC, senderD := &fakeSender{}, &fakeSender{}, &fakeSender{}, &fakeSender{}
	a := New("A", 1000, senderA)
	b := New("B", 1000, senderB)
	c := New("C", 1000, senderC)
	d := New("D", 1000, senderD)

	a.OnNewLink(1, "B", 1)
	b.OnNewLink(1, "A", 1)
	b.OnNewLink(2, "C", 1)
	c.OnNewLink(1, "B", 1)
	c.OnNewLink(2, "D", 1)
	d.OnNewLink(1, "C", 1)

	// Propagate a few rounds of heartbeats/packet exchange until it settles.
	converge := func() {
		for round := 0; round < 6; round++ {
			deliver(t, a, senderA, b, 1)
			deliver(t, b, senderB, a, 1)
			deliver(t, b, senderB, c, 2)
			deliver(t, c, senderC, b, 1)
			deliver(t, c, senderC, d, 2)
			deliver(t, d, senderD, c, 1)
		}
	}
	converge()

	assert.Equal(t, map[router.NodeID]Cost{"A": 0, "B": 1, "C": 2, "D": 3}, a.OwnVector())
	fwd := a.ForwardingTable()
	require.Len(t, fwd, 3)
	for _, dest := range []router.NodeID{"B", "C", "D"} {
		assert.Equal(t, router.Port(1), fwd[dest], "A should route everything through B")
	}
}

// deliver sends from's most recent advertisement on toPort directly into
// to's OnPacket, simulating the link between them for this test.
func deliver(t *testing.T, from *Node, fromSender *fakeSender, to *Node, toPort router.Port) {
	t.Helper()
	fromSender.reset()
	from.broadcastAllForTest()
	pkt, ok := fromSender.last(toPort)
	if !ok {
		return
	}
	to.OnPacket(toPort, pkt)
}

// broadcastAllForTest exposes broadcastAll to the test without changing the
// exported surface.
func (n *Node) broadcastAllForTest() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcastAll()
}

func TestPoisonedReverse(t *testing.T) {
	// A - B - C chain, cost 1. A's route to C goes via B, so the vector A
	// sends to B must poison C.
	senderA := &fakeSender{}
	a := New("A", 1000, senderA)
	b := New("B", 1000, &fakeSender{})

	a.OnNewLink(1, "B", 1)
	b.OnNewLink(1, "A", 1)

	// Give A a route to C via B.
	bVector := packet.EncodeDV(map[string]int{"B": 0, "C": 1})
	a.OnPacket(1, packet.Packet{Kind: packet.Routing, Src: "B", Dst: "A", Content: bVector})

	require.Equal(t, map[router.NodeID]Cost{"A": 0, "B": 1, "C": 2}, a.OwnVector())

	senderA.reset()
	a.broadcastAllForTest()
	sentToB, ok := senderA.last(1)
	require.True(t, ok)
	vec := decodeVector(t, sentToB)
	assert.Equal(t, InfCostForTest(), vec["C"], "C must be poisoned back toward B")
	assert.Equal(t, 0, vec["A"])
}

// InfCostForTest exposes the clamp constant to tests in this package.
func InfCostForTest() int { return int(inf) }

func TestStrangerPacketDropped(t *testing.T) {
	n := New("A", 1000, &fakeSender{})
	n.OnNewLink(1, "B", 1)

	before := n.OwnVector()

	// Packet claims to be from C, which isn't a neighbor at all.
	n.OnPacket(1, packet.Packet{Kind: packet.Routing, Src: "C", Dst: "A", Content: packet.EncodeDV(map[string]int{"C": 0})})
	assert.Equal(t, before, n.OwnVector())

	// Packet claims to be from B but arrives on the wrong port.
	n.OnNewLink(2, "D", 1)
	n.OnPacket(2, packet.Packet{Kind: packet.Routing, Src: "B", Dst: "A", Content: packet.EncodeDV(map[string]int{"B": 0, "Z": 1})})
	_, hasZ := n.OwnVector()["Z"]
	assert.False(t, hasZ, "wrong-port packet must be dropped")
}

func TestMalformedPacketDropped(t *testing.T) {
	n := New("A", 1000, &fakeSender{})
	n.OnNewLink(1, "B", 1)
	before := n.OwnVector()

	n.OnPacket(1, packet.Packet{Kind: packet.Routing, Src: "B", Dst: "A", Content: []byte("not json")})
	assert.Equal(t, before, n.OwnVector())
}

func TestRemoveLinkPurgesForwardingAndConverges(t *testing.T) {
	// A - B - C chain, cost 1.
	senderA, senderB, senderC := &fakeSender{}, &fakeSender{}, &fakeSender{}
	a := New("A", 1000, senderA)
	b := New("B", 1000, senderB)
	c := New("C", 1000, senderC)

	a.OnNewLink(1, "B", 1)
	b.OnNewLink(1, "A", 1)
	b.OnNewLink(2, "C", 1)
	c.OnNewLink(1, "B", 1)

	for i := 0; i < 4; i++ {
		deliver(t, a, senderA, b, 1)
		deliver(t, b, senderB, a, 1)
		deliver(t, b, senderB, c, 2)
		deliver(t, c, senderC, b, 1)
	}

	require.Contains(t, a.OwnVector(), router.NodeID("C"))

	// Remove the B-C link: B purges C immediately.
	b.OnRemoveLink(2)
	_, hasC := b.ForwardingTable()["C"]
	assert.False(t, hasC, "B must purge C from forward immediately on link removal")

	for i := 0; i < 6; i++ {
		deliver(t, a, senderA, b, 1)
		deliver(t, b, senderB, a, 1)
	}

	_, hasC = a.ForwardingTable()["C"]
	assert.False(t, hasC, "A must eventually drop C once B stops advertising it")
}

func TestOnRemoveLinkIsNoOpForUnboundPort(t *testing.T) {
	n := New("A", 1000, &fakeSender{})
	before := n.OwnVector()
	n.OnRemoveLink(99)
	assert.Equal(t, before, n.OwnVector())
}

func TestOnTickBroadcastsAtMostOncePerTimestamp(t *testing.T) {
	sender := &fakeSender{}
	n := New("A", 1000, sender)
	n.OnNewLink(1, "B", 1)

	sender.reset()
	n.OnTick(1000)
	firstCount := len(sender.sent)
	assert.Greater(t, firstCount, 0)

	n.OnTick(1000)
	assert.Equal(t, firstCount, len(sender.sent), "same timestamp twice must broadcast at most once")

	n.OnTick(2500)
	assert.Greater(t, len(sender.sent), firstCount, "a later tick past the heartbeat boundary broadcasts again")
}

func TestSanitizeIsIdempotent(t *testing.T) {
	wire := map[string]int{"A": -1, "B": 16, "C": 3, "D": 100}
	once := sanitize(wire)
	twice := sanitize(toWire(once))
	assert.Equal(t, once, twice)
}

func toWire(m map[router.NodeID]Cost) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = int(v)
	}
	return out
}

func TestDataPacketForwardedOrDropped(t *testing.T) {
	sender := &fakeSender{}
	n := New("A", 1000, sender)
	n.OnNewLink(1, "B", 1)

	sender.reset()
	n.OnPacket(1, packet.Packet{Kind: packet.Data, Src: "X", Dst: "B", Content: []byte("hi")})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, router.Port(1), sender.sent[0].port)

	sender.reset()
	n.OnPacket(1, packet.Packet{Kind: packet.Data, Src: "X", Dst: "Nowhere", Content: []byte("hi")})
	assert.Empty(t, sender.sent, "unroutable data packets are dropped silently")
}
