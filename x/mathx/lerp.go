package mathx

import "golang.org/x/exp/constraints"

// LerpFrac interpolates from a to b by num/den with integer maths.
// The division truncates toward zero. den <= 0 returns a.
func LerpFrac[T constraints.Signed](a, b, num, den T) T {
	if den <= 0 {
		return a
	}
	return a + num*(b-a)/den
}
