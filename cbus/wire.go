package cbus

// Binary layout used on the serial link:
//
//	[opcode, node_hi, node_lo, event_hi, event_lo, data...]
//
// The data length is implied by the opcode.

// AppendBinary appends the encoding of e to b.
func (e Event) AppendBinary(b []byte) ([]byte, error) {
	if len(e.Data) > MaxData {
		return b, ErrTooLong
	}
	b = append(b, e.Opcode(), byte(e.Node>>8), byte(e.Node), byte(e.Event>>8), byte(e.Event))
	return append(b, e.Data...), nil
}

// ParseBinary decodes one event. Trailing bytes are an error.
func ParseBinary(b []byte) (Event, error) {
	if len(b) < 5 {
		return Event{}, ErrShortFrame
	}
	short, on, n, err := decodeOpcode(b[0])
	if err != nil {
		return Event{}, err
	}
	if len(b) != 5+n {
		return Event{}, ErrShortFrame
	}
	e := Event{
		Short: short,
		On:    on,
		Node:  uint16(b[1])<<8 | uint16(b[2]),
		Event: uint16(b[3])<<8 | uint16(b[4]),
	}
	if n > 0 {
		e.Data = append([]byte(nil), b[5:]...)
	}
	return e, nil
}
