// Package throttle sends the knob speed to every section this panel owns.
package throttle

import (
	"cabcontrol-go/cbus"
	"cabcontrol-go/services/panel/internal/sections"
)

// Sender puts one event on the layout bus.
type Sender interface {
	Send(ev cbus.Event)
}

type Config struct {
	Acceleration uint8 // 0..127
	Frequency    bool  // carried in the top bit of the acceleration byte
}

// Payload builds the three throttle data bytes.
func Payload(speed int8, accel uint8, freq bool) [3]byte {
	a := accel & 0x7F
	if freq {
		a |= 0x80
	}
	return [3]byte{byte(speed), a, 0}
}

type Broadcaster struct {
	reg *sections.Registry
	tx  Sender
	cfg Config

	owned    func(section int) bool
	reversed func(sw int) bool
}

// New wires a broadcaster. owned gates Update; reversed reports whether a
// direction switch is active.
func New(reg *sections.Registry, tx Sender, cfg Config, owned func(int) bool, reversed func(int) bool) *Broadcaster {
	return &Broadcaster{reg: reg, tx: tx, cfg: cfg, owned: owned, reversed: reversed}
}

// Send sends speed to one section, inverted when its direction switch is
// active. Unconfigured and out-of-range sections are skipped.
func (b *Broadcaster) Send(section int, speed int8) bool {
	s, ok := b.reg.Get(section)
	if !ok || !s.Configured() {
		return false
	}
	if s.DirectionSwitch != sections.None && b.reversed != nil && b.reversed(s.DirectionSwitch) {
		speed = -speed
	}
	p := Payload(speed, b.cfg.Acceleration, b.cfg.Frequency)
	b.tx.Send(cbus.Event{
		Node:  s.Addr.Node,
		Event: s.Addr.Event,
		On:    true,
		Data:  p[:],
	})
	return true
}

// Update sends speed to every owned section and returns how many were sent.
func (b *Broadcaster) Update(speed int8) int {
	n := 0
	for i := 0; i < b.reg.Len(); i++ {
		if b.owned != nil && !b.owned(i) {
			continue
		}
		if b.Send(i, speed) {
			n++
		}
	}
	return n
}
