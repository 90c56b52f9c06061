// Package indicators holds the panel's 32 indicator bits.
package indicators

const (
	Count = 32
	Rows  = 4
	// RowBits is the number of slots in one multiplexed row.
	RowBits = Count / Rows
)

// Store is a plain addressable bit array. Out-of-range slots are ignored.
type Store struct {
	bits uint32
}

func (s *Store) Set(i int) {
	if i >= 0 && i < Count {
		s.bits |= 1 << uint(i)
	}
}

func (s *Store) Clear(i int) {
	if i >= 0 && i < Count {
		s.bits &^= 1 << uint(i)
	}
}

// Put sets or clears slot i.
func (s *Store) Put(i int, on bool) {
	if on {
		s.Set(i)
	} else {
		s.Clear(i)
	}
}

func (s *Store) Test(i int) bool {
	if i < 0 || i >= Count {
		return false
	}
	return s.bits&(1<<uint(i)) != 0
}

// Bits returns the whole matrix, slot i in bit i.
func (s *Store) Bits() uint32 { return s.bits }

// Load replaces the whole matrix.
func (s *Store) Load(bits uint32) { s.bits = bits }

// Row returns the eight slots of one multiplexed row.
func Row(bits uint32, row int) uint8 {
	if row < 0 || row >= Rows {
		return 0
	}
	return uint8(bits >> (uint(row) * RowBits))
}
