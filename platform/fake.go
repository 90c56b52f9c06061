package platform

import "sync"

// Fake is panel hardware held in memory, for tests and the simulator.
// It is safe for use from several goroutines.
type Fake struct {
	mu       sync.Mutex
	switches [switchCount]bool
	reading  uint8
	bits     uint32
	renders  int
}

func NewFake() *Fake { return &Fake{reading: centre} }

func (f *Fake) RawSwitch(i int) bool {
	if i < 0 || i >= switchCount {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.switches[i]
}

func (f *Fake) LastReading() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reading
}

func (f *Fake) Render(bits uint32) {
	f.mu.Lock()
	f.bits = bits
	f.renders++
	f.mu.Unlock()
}

// SetSwitch holds switch i pressed or released.
func (f *Fake) SetSwitch(i int, pressed bool) {
	if i < 0 || i >= switchCount {
		return
	}
	f.mu.Lock()
	f.switches[i] = pressed
	f.mu.Unlock()
}

// Toggle flips switch i and returns its new position.
func (f *Fake) Toggle(i int) bool {
	if i < 0 || i >= switchCount {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches[i] = !f.switches[i]
	return f.switches[i]
}

func (f *Fake) SetReading(v uint8) {
	f.mu.Lock()
	f.reading = v
	f.mu.Unlock()
}

// Rendered returns the last indicator bits and how many renders happened.
func (f *Fake) Rendered() (uint32, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bits, f.renders
}
