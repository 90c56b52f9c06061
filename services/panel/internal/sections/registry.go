// Package sections maps each track section to its switches, indicator
// slots and shared bus address.
package sections

import "cabcontrol-go/cbus"

// Max is the number of sections a panel can drive.
const Max = 16

// None marks a switch role the section does not have.
const None = -1

type Section struct {
	Index int

	RequestSwitch   int
	DirectionSwitch int // None in two-switch mode
	ReleaseSwitch   int // None in toggle mode

	OurSlot   int // lit while this panel owns the section
	OtherSlot int // lit while another panel owns it

	Addr cbus.Addr
}

// Configured reports whether the section takes part in the protocol.
func (s Section) Configured() bool { return s.Addr.Configured() }

// slots is the panel's fixed indicator wiring: {our, other} per section.
var slots = [Max][2]int{
	{0, 8}, {16, 24}, {1, 9}, {17, 25},
	{2, 10}, {18, 26}, {3, 11}, {19, 27},
	{4, 12}, {20, 28}, {5, 13}, {21, 29},
	{6, 14}, {22, 30}, {7, 15}, {23, 31},
}

// Registry is fixed once built.
type Registry struct {
	secs     []Section
	bySwitch map[int]int
}

// New lays out one section per address. Section i uses switch 2i to
// request; switch 2i+1 selects direction in toggle mode or releases in
// two-switch mode. Addresses past Max are ignored.
func New(addrs []cbus.Addr, toggle bool) *Registry {
	n := len(addrs)
	if n > Max {
		n = Max
	}
	r := &Registry{secs: make([]Section, n), bySwitch: make(map[int]int, 2*n)}
	for i := 0; i < n; i++ {
		s := Section{
			Index:           i,
			RequestSwitch:   2 * i,
			DirectionSwitch: None,
			ReleaseSwitch:   None,
			OurSlot:         slots[i][0],
			OtherSlot:       slots[i][1],
			Addr:            addrs[i],
		}
		if toggle {
			s.DirectionSwitch = 2*i + 1
		} else {
			s.ReleaseSwitch = 2*i + 1
		}
		r.secs[i] = s
		r.bySwitch[s.RequestSwitch] = i
		if s.ReleaseSwitch != None {
			r.bySwitch[s.ReleaseSwitch] = i
		}
	}
	return r
}

func (r *Registry) Len() int { return len(r.secs) }

// Get returns section i; ok is false when i is out of range.
func (r *Registry) Get(i int) (Section, bool) {
	if i < 0 || i >= len(r.secs) {
		return Section{}, false
	}
	return r.secs[i], true
}

// BySwitch returns the section whose request or release switch is sw.
func (r *Registry) BySwitch(sw int) (Section, bool) {
	i, ok := r.bySwitch[sw]
	if !ok {
		return Section{}, false
	}
	return r.secs[i], true
}

// Match returns the configured sections sharing address a.
func (r *Registry) Match(a cbus.Addr) []int {
	if !a.Configured() {
		return nil
	}
	var out []int
	for _, s := range r.secs {
		if s.Configured() && s.Addr == a {
			out = append(out, s.Index)
		}
	}
	return out
}
