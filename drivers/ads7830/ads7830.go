// Package ads7830 reads the ADS7830 8-channel 8-bit I2C ADC.
package ads7830

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address with A1 and A0 tied low.
const Address = 0x48

const (
	cmdSingleEnded = 0x80
	// Internal reference off, converter on between conversions.
	cmdPowerADCOn = 0x04
)

var ErrChannel = errors.New("ads7830: channel must be 0..7")

type Device struct {
	bus     drivers.I2C
	Address uint16
	buf     [1]byte
}

func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = Address
	}
	return &Device{bus: bus, Address: addr}
}

// Command returns the command byte for a single-ended conversion of ch.
// The channel select bits are ordered odd-channel-high.
func Command(ch int) byte {
	sel := byte(ch&1)<<2 | byte(ch>>1)
	return cmdSingleEnded | sel<<4 | cmdPowerADCOn
}

// Read converts one single-ended channel.
func (d *Device) Read(ch int) (uint8, error) {
	if ch < 0 || ch > 7 {
		return 0, ErrChannel
	}
	if err := d.bus.Tx(d.Address, []byte{Command(ch)}, d.buf[:]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}
