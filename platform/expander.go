// Package platform provides panel hardware: an I2C expander board used on
// both hosts and microcontrollers, and an in-memory fake.
package platform

import (
	"errors"

	"tinygo.org/x/drivers"

	"cabcontrol-go/drivers/ads7830"
	"cabcontrol-go/drivers/mcp23017"
)

const (
	switchRows  = 8
	switchCols  = 4
	switchCount = switchRows * switchCols
	ledRows     = 4
	centre      = 128
)

// ExpanderConfig addresses the three chips on the panel board. Zero
// values select 0x20, 0x21, 0x48 and channel 0.
type ExpanderConfig struct {
	SwitchAddr uint16
	LEDAddr    uint16
	ADCAddr    uint16
	PotChannel int
}

// Expander is the panel board.
//
// The switch expander reads the eight matrix rows on port A (pulled up,
// active low) while driving one column low at a time on port B bits 0..3.
// The LED expander drives the eight bit lines on port A and selects one
// active-low row on port B bits 0..3, one row per Render.
type Expander struct {
	sw  *mcp23017.Device
	led *mcp23017.Device
	adc *ads7830.Device
	ch  int

	cols    [switchCols]uint8
	reading uint8
	row     int
	ledErr  error
}

func NewExpander(bus drivers.I2C, cfg ExpanderConfig) (*Expander, error) {
	e := &Expander{
		sw:      mcp23017.New(bus, cfg.SwitchAddr),
		led:     mcp23017.New(bus, orDefault(cfg.LEDAddr, mcp23017.Address+1)),
		adc:     ads7830.New(bus, cfg.ADCAddr),
		ch:      cfg.PotChannel,
		reading: centre,
	}
	if err := e.sw.Configure(mcp23017.Config{Inputs: 0x00FF, PullUps: 0x00FF}); err != nil {
		return nil, err
	}
	if err := e.sw.WritePort(1, 0xFF); err != nil {
		return nil, err
	}
	if err := e.led.Configure(mcp23017.Config{}); err != nil {
		return nil, err
	}
	if err := e.led.WritePins(0xFF00); err != nil {
		return nil, err
	}
	return e, nil
}

func orDefault(v, def uint16) uint16 {
	if v == 0 {
		return def
	}
	return v
}

// Latch reads the whole switch matrix. A failed render since the last
// latch is reported here too.
func (e *Expander) Latch() error {
	var scanErr error
	for c := 0; c < switchCols; c++ {
		if err := e.sw.WritePort(1, ^uint8(1<<c)); err != nil {
			scanErr = err
			break
		}
		rows, err := e.sw.ReadPort(0)
		if err != nil {
			scanErr = err
			break
		}
		e.cols[c] = ^rows
	}
	if err := e.sw.WritePort(1, 0xFF); err != nil && scanErr == nil {
		scanErr = err
	}
	err := errors.Join(scanErr, e.ledErr)
	e.ledErr = nil
	return err
}

func (e *Expander) RawSwitch(i int) bool {
	if i < 0 || i >= switchCount {
		return false
	}
	return e.cols[i/switchRows]&(1<<(i%switchRows)) != 0
}

func (e *Expander) SampleAnalogue() error {
	v, err := e.adc.Read(e.ch)
	if err != nil {
		return err
	}
	e.reading = v
	return nil
}

func (e *Expander) LastReading() uint8 { return e.reading }

// Render drives the next indicator row.
func (e *Expander) Render(bits uint32) {
	r := e.row
	e.row = (e.row + 1) % ledRows
	line := uint16(byte(bits >> (8 * r)))
	if err := e.led.WritePins(line | uint16(^uint8(1<<r))<<8); err != nil {
		e.ledErr = err
	}
}
