// Package control is the per-section ownership state machine.
//
// Every section is Idle, OwnedByOther or OwnedByUs. Local switch presses
// and claims heard on the bus move it between those states; each
// transition is mirrored onto the section's two indicator slots, so the
// slots are a projection of the state and never both lit.
package control

import (
	"cabcontrol-go/cbus"
	"cabcontrol-go/services/panel/internal/indicators"
	"cabcontrol-go/services/panel/internal/sections"
	"cabcontrol-go/services/panel/internal/throttle"
)

type State uint8

const (
	Idle State = iota
	OwnedByOther
	OwnedByUs
)

func (s State) String() string {
	switch s {
	case OwnedByOther:
		return "owned_by_other"
	case OwnedByUs:
		return "owned_by_us"
	default:
		return "idle"
	}
}

type Config struct {
	// Node is this panel; it produces the claim events.
	Node uint16
	// ControlEvent is the short event number claims travel on.
	ControlEvent uint16

	MasterPanel   bool // a press may take a section another panel owns
	StopOnRelease bool // send speed 0 before announcing a release
	SwitchToggle  bool // the request switch also releases
}

// Stopper sends a speed to a single section.
type Stopper interface {
	Send(section int, speed int8) bool
}

type Machine struct {
	cfg   Config
	reg   *sections.Registry
	ind   *indicators.Store
	tx    throttle.Sender
	stop  Stopper
	state []State

	// OnChange, when set, is called after each state change.
	OnChange func(section int, from, to State)
}

func New(cfg Config, reg *sections.Registry, ind *indicators.Store, tx throttle.Sender, stop Stopper) *Machine {
	m := &Machine{
		cfg:   cfg,
		reg:   reg,
		ind:   ind,
		tx:    tx,
		stop:  stop,
		state: make([]State, reg.Len()),
	}
	for i := range m.state {
		m.render(i)
	}
	return m
}

// State returns the state of section i; out-of-range sections read Idle.
func (m *Machine) State(i int) State {
	if i < 0 || i >= len(m.state) {
		return Idle
	}
	return m.state[i]
}

// Owned reports whether this panel owns section i.
func (m *Machine) Owned(i int) bool { return m.State(i) == OwnedByUs }

// SwitchPressed handles a committed press of switch sw. Switches that are
// not a request or release switch are ignored.
//
// In two-switch mode a request press on a section we already own sends the
// claim again whether or not this is the master panel. The MERG CANCAB
// panel firmware only repeats it on a master panel.
func (m *Machine) SwitchPressed(sw int) {
	s, ok := m.reg.BySwitch(sw)
	if !ok {
		return
	}
	i := s.Index
	if sw == s.ReleaseSwitch {
		if m.state[i] == OwnedByUs {
			m.Release(i)
		}
		return
	}
	switch m.state[i] {
	case OwnedByUs:
		if m.cfg.SwitchToggle {
			m.Release(i)
		} else {
			m.Request(i) // re-announce
		}
	case OwnedByOther:
		if m.cfg.MasterPanel {
			m.Request(i)
		}
	default:
		m.Request(i)
	}
}

// Request claims section i: the claim goes out first, then the section
// becomes OwnedByUs. Unconfigured sections are left alone.
func (m *Machine) Request(i int) {
	s, ok := m.reg.Get(i)
	if !ok || !s.Configured() {
		return
	}
	m.tx.Send(cbus.ClaimEvent(m.cfg.Node, m.cfg.ControlEvent, s.Addr, true))
	m.set(i, OwnedByUs)
}

// Release gives up section i when this panel owns it. With StopOnRelease
// the zero speed is sent before the release is announced.
func (m *Machine) Release(i int) {
	s, ok := m.reg.Get(i)
	if !ok || !s.Configured() || m.state[i] != OwnedByUs {
		return
	}
	m.set(i, Idle)
	if m.cfg.StopOnRelease && m.stop != nil {
		m.stop.Send(i, 0)
	}
	m.tx.Send(cbus.ClaimEvent(m.cfg.Node, m.cfg.ControlEvent, s.Addr, false))
}

// ReleaseAll releases every section this panel owns.
func (m *Machine) ReleaseAll() {
	for i := range m.state {
		m.Release(i)
	}
}

// Received applies a claim or release heard from another panel to every
// section sharing its address. The latest remote claim wins locally.
func (m *Machine) Received(msg cbus.ControlMessage) {
	for _, i := range m.reg.Match(msg.Addr()) {
		if msg.Off() {
			m.set(i, Idle)
		} else {
			m.set(i, OwnedByOther)
		}
	}
}

// Counts returns how many sections are owned by us and by others.
func (m *Machine) Counts() (ours, others int) {
	for _, st := range m.state {
		switch st {
		case OwnedByUs:
			ours++
		case OwnedByOther:
			others++
		}
	}
	return ours, others
}

func (m *Machine) set(i int, to State) {
	from := m.state[i]
	m.state[i] = to
	m.render(i)
	if from != to && m.OnChange != nil {
		m.OnChange(i, from, to)
	}
}

func (m *Machine) render(i int) {
	s, _ := m.reg.Get(i)
	m.ind.Put(s.OurSlot, m.state[i] == OwnedByUs)
	m.ind.Put(s.OtherSlot, m.state[i] == OwnedByOther)
}
