// Package switches debounces the panel's switch matrix.
//
// Each Poll compares every raw bit with its committed value. A change
// outside the debounce window is committed at once and reported; the window
// then runs for a fixed number of polls during which that switch is not
// looked at again. A bounce that settles back inside the window is never
// seen, and one that settles on the new value is committed on the first
// poll after the window.
package switches

// Matrix geometry of the panel.
const (
	Rows  = 8
	Cols  = 4
	Count = Rows * Cols

	DefaultDebounce = 4
)

// Index returns the logical switch for a matrix position.
func Index(col, row int) int { return col*Rows + row }

// Sampler reads one raw switch bit.
type Sampler interface {
	RawSwitch(index int) bool
}

// Event is a committed switch edge.
type Event struct {
	Switch  int
	Pressed bool
}

type Scanner struct {
	src       Sampler
	window    uint8
	committed [Count]bool
	countdown [Count]uint8
}

// New returns a scanner over src. window is in polls; 0 selects
// DefaultDebounce.
func New(src Sampler, window uint8) *Scanner {
	if window == 0 {
		window = DefaultDebounce
	}
	return &Scanner{src: src, window: window}
}

// Prime commits the current raw state without emitting anything.
func (s *Scanner) Prime() {
	for i := range s.committed {
		s.committed[i] = s.src.RawSwitch(i)
		s.countdown[i] = 0
	}
}

// Poll performs one debounce step over every switch and calls emit for
// each committed change, in index order.
func (s *Scanner) Poll(emit func(Event)) {
	for i := range s.committed {
		if s.countdown[i] > 0 {
			s.countdown[i]--
			continue
		}
		raw := s.src.RawSwitch(i)
		if raw == s.committed[i] {
			continue
		}
		s.committed[i] = raw
		s.countdown[i] = s.window
		if emit != nil {
			emit(Event{Switch: i, Pressed: raw})
		}
	}
}

// State returns the committed state of switch i. Out-of-range switches
// read as released.
func (s *Scanner) State(i int) bool {
	if i < 0 || i >= Count {
		return false
	}
	return s.committed[i]
}

// Settling reports whether switch i is inside its debounce window.
func (s *Scanner) Settling(i int) bool {
	if i < 0 || i >= Count {
		return false
	}
	return s.countdown[i] > 0
}
