// Package mcp23017 drives the MCP23017 16-bit I2C port expander.
//
// Registers are used in the power-on BANK=0 layout, where each A register
// is followed by its B twin, so 16-bit values are written and read as one
// two-byte transfer. Pin 0 is GPA0 and pin 15 is GPB7.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided.
package mcp23017

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address is the base address with A2..A0 tied low.
const Address = 0x20

const (
	regIODIRA = 0x00
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
	regOLATA  = 0x14
)

var ErrPort = errors.New("mcp23017: port must be 0 (A) or 1 (B)")

// Config selects pin directions and pull-ups. A set bit in Inputs makes the
// pin an input; a set bit in PullUps enables its 100k pull-up.
type Config struct {
	Address uint16
	Inputs  uint16
	PullUps uint16
}

type Device struct {
	bus     drivers.I2C
	Address uint16
	buf     [3]byte
}

// New creates a device on an already configured bus. A zero addr selects
// Address.
func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = Address
	}
	return &Device{bus: bus, Address: addr}
}

// Configure writes the direction and pull-up registers.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	if err := d.write16(regIODIRA, cfg.Inputs); err != nil {
		return err
	}
	return d.write16(regGPPUA, cfg.PullUps)
}

// ReadPins returns the level of all 16 pins.
func (d *Device) ReadPins() (uint16, error) {
	r := d.buf[:2]
	if err := d.bus.Tx(d.Address, []byte{regGPIOA}, r); err != nil {
		return 0, err
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

// WritePins sets the output latches of all 16 pins.
func (d *Device) WritePins(v uint16) error {
	return d.write16(regOLATA, v)
}

// ReadPort returns the pins of one port.
func (d *Device) ReadPort(port int) (uint8, error) {
	if port != 0 && port != 1 {
		return 0, ErrPort
	}
	r := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{regGPIOA + byte(port)}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// WritePort sets the output latches of one port.
func (d *Device) WritePort(port int, v uint8) error {
	if port != 0 && port != 1 {
		return ErrPort
	}
	d.buf[0] = regOLATA + byte(port)
	d.buf[1] = v
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}

func (d *Device) write16(reg byte, v uint16) error {
	d.buf[0] = reg
	d.buf[1] = byte(v)
	d.buf[2] = byte(v >> 8)
	return d.bus.Tx(d.Address, d.buf[:3], nil)
}
