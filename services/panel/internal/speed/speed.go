// Package speed turns the knob reading into a signed speed.
package speed

import "cabcontrol-go/x/mathx"

// Curve is the piecewise-linear knob response. Values are 0..127.
type Curve struct {
	DeadZone uint8 // half-width of the stop band around the centre
	Start    uint8 // speed at the edge of the stop band
	End      uint8 // speed at full deflection
}

// Speed maps an 8-bit reading (centre 128) to a speed in -127..127.
func (c Curve) Speed(reading uint8) int8 {
	r := int(reading) - 128
	a := int(mathx.Clamp(c.DeadZone, 0, 127))
	if mathx.Abs(r) < a {
		return 0
	}
	sign := mathx.Sign(r)
	mag := mathx.LerpFrac(int(c.Start), int(c.End), mathx.Abs(r)-a, 128-a)
	return int8(mathx.Clamp(sign*mag, -127, 127))
}

// Tracker applies the curve only when the reading changes and reports a
// speed only when it differs from the last one reported.
type Tracker struct {
	Curve Curve

	reading uint8
	speed   int8
	primed  bool
}

// Prime records the current reading and its speed without reporting it.
func (t *Tracker) Prime(reading uint8) {
	t.reading = reading
	t.speed = t.Curve.Speed(reading)
	t.primed = true
}

// Observe feeds a reading and returns the new speed when it changed.
func (t *Tracker) Observe(reading uint8) (int8, bool) {
	if t.primed && reading == t.reading {
		return t.speed, false
	}
	t.reading = reading
	s := t.Curve.Speed(reading)
	if t.primed && s == t.speed {
		return s, false
	}
	t.primed = true
	t.speed = s
	return s, true
}

// Speed returns the last computed speed.
func (t *Tracker) Speed() int8 { return t.speed }

// Reading returns the last observed reading.
func (t *Tracker) Reading() uint8 { return t.reading }
