// Package packet defines the opaque, transport-agnostic packet structure
// consumed and produced by router.Node implementations (spec §6), plus the
// text codec used to encode/decode DV and LS routing payloads. The
// transport-level wire framing (headers, checksums, TTLs) that a real
// network stack would add around this is out of scope for the routing core
// and lives entirely outside this module, in the simulator.
package packet

import "encoding/json"

// Kind distinguishes a data packet, routed by the forwarding table, from a
// routing packet, handled by the protocol state machine.
type Kind int

const (
	Data Kind = iota
	Routing
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "DATA"
	case Routing:
		return "ROUTING"
	default:
		return "UNKNOWN"
	}
}

// Packet is the narrow structure handed between the simulator and a
// router.Node. Content is protocol-defined payload; routing packets decode
// it with DecodeDV or DecodeLS.
type Packet struct {
	Kind    Kind
	Src     string
	Dst     string
	Content []byte
}

// IsTraceroute reports whether this is a DATA packet, per spec §6's note
// that the "is_traceroute" flag is interchangeable with Kind == Data.
func (p Packet) IsTraceroute() bool {
	return p.Kind == Data
}

// EncodeDV encodes a destination->cost distance vector as the DV routing
// wire format: a JSON object with string keys and integer values.
func EncodeDV(vector map[string]int) []byte {
	// json.Marshal on a map never fails for this value shape.
	data, _ := json.Marshal(vector)
	return data
}

// DecodeDV parses a DV routing packet's content. A non-nil error means the
// payload was malformed and must be dropped silently by the caller.
func DecodeDV(content []byte) (map[string]int, error) {
	var vector map[string]int
	if err := json.Unmarshal(content, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// lspWire is the on-the-wire shape of an LS routing packet's content.
type lspWire struct {
	Origin string         `json:"origin"`
	Seq    int            `json:"seq"`
	Links  map[string]int `json:"links"`
}

// EncodeLS encodes an LSP: the originator's identifier, its sequence
// number, and its current neighbor->cost adjacency map.
func EncodeLS(origin string, seq int, links map[string]int) []byte {
	data, _ := json.Marshal(lspWire{Origin: origin, Seq: seq, Links: links})
	return data
}

// DecodeLS parses an LS routing packet's content. A non-nil error, a
// missing origin, or a negative sequence number all mean the payload must
// be dropped silently by the caller.
func DecodeLS(content []byte) (origin string, seq int, links map[string]int, err error) {
	var wire lspWire
	if err := json.Unmarshal(content, &wire); err != nil {
		return "", 0, nil, err
	}
	if wire.Origin == "" {
		return "", 0, nil, errMissingOrigin
	}
	if wire.Seq < 0 {
		return "", 0, nil, errNegativeSeq
	}
	if wire.Links == nil {
		wire.Links = map[string]int{}
	}
	return wire.Origin, wire.Seq, wire.Links, nil
}
