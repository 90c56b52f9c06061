// Package cbus models the layout bus events a panel sends and receives:
// long and short on/off events with up to three data bytes.
package cbus

import "errors"

// Opcodes. The low bit is set for "off".
const (
	OpACON  byte = 0x90
	OpACOF  byte = 0x91
	OpASON  byte = 0x98
	OpASOF  byte = 0x99
	OpACON1 byte = 0xB0
	OpACOF1 byte = 0xB1
	OpASON1 byte = 0xB8
	OpASOF1 byte = 0xB9
	OpACON2 byte = 0xD0
	OpACOF2 byte = 0xD1
	OpASON2 byte = 0xD8
	OpASOF2 byte = 0xD9
	OpACON3 byte = 0xF0
	OpACOF3 byte = 0xF1
	OpASON3 byte = 0xF8
	OpASOF3 byte = 0xF9
)

// MaxData is the most data bytes an event carries.
const MaxData = 3

var (
	ErrShortFrame = errors.New("cbus: short frame")
	ErrOpcode     = errors.New("cbus: not an event opcode")
	ErrTooLong    = errors.New("cbus: too many data bytes")
)

// Event is one accessory event. For long events Node and Event together
// are the address. For short events only Event is the address and Node is
// the producing node.
type Event struct {
	Short bool
	Node  uint16
	Event uint16
	On    bool
	Data  []byte
}

// Opcode returns the opcode for the event's kind, state and data length.
// Data beyond MaxData is not representable and is truncated.
func (e Event) Opcode() byte {
	n := len(e.Data)
	if n > MaxData {
		n = MaxData
	}
	op := OpACON
	switch n {
	case 1:
		op = OpACON1
	case 2:
		op = OpACON2
	case 3:
		op = OpACON3
	}
	if e.Short {
		op |= 0x08
	}
	if !e.On {
		op |= 0x01
	}
	return op
}

// decodeOpcode reports the kind, state and data length of an event opcode.
func decodeOpcode(op byte) (short, on bool, n int, err error) {
	switch op &^ 0x09 {
	case OpACON:
		n = 0
	case OpACON1:
		n = 1
	case OpACON2:
		n = 2
	case OpACON3:
		n = 3
	default:
		return false, false, 0, ErrOpcode
	}
	return op&0x08 != 0, op&0x01 == 0, n, nil
}

// Addr is a (node, event) pair.
type Addr struct {
	Node  uint16
	Event uint16
}

// Configured reports whether the address can take part in the protocol.
func (a Addr) Configured() bool { return a.Node != 0 }
