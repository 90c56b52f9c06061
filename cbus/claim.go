package cbus

// A claim is a short event on the panel's control event number. Its data
// bytes name the section: node high, node low, event low. Section event
// numbers therefore fit in one byte.

// ClaimEvent builds the claim (on) or release (off) for section address a,
// produced by node.
func ClaimEvent(node, control uint16, a Addr, on bool) Event {
	return Event{
		Short: true,
		Node:  node,
		Event: control,
		On:    on,
		Data:  []byte{byte(a.Node >> 8), byte(a.Node), byte(a.Event)},
	}
}

// ControlMessage is the inbound view of a claim: the opcode and the three
// address bytes it carried.
type ControlMessage struct {
	Opcode   byte
	NodeHigh byte
	NodeLow  byte
	EventLow byte
}

// Off reports whether the message releases the section.
func (m ControlMessage) Off() bool { return m.Opcode&0x01 != 0 }

// Addr rebuilds the section address.
func (m ControlMessage) Addr() Addr {
	return Addr{Node: uint16(m.NodeHigh)<<8 | uint16(m.NodeLow), Event: uint16(m.EventLow)}
}

// ParseClaim extracts a ControlMessage from e when e is a claim on the
// control event number.
func ParseClaim(e Event, control uint16) (ControlMessage, bool) {
	if !e.Short || e.Event != control || len(e.Data) < 3 {
		return ControlMessage{}, false
	}
	return ControlMessage{
		Opcode:   e.Opcode(),
		NodeHigh: e.Data[0],
		NodeLow:  e.Data[1],
		EventLow: e.Data[2],
	}, true
}
