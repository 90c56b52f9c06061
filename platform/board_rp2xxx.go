//go:build rp2040 || rp2350

package platform

import "machine"

// NewBoard configures i2c0 on the default pins at 400 kHz and returns the
// expander board behind it.
func NewBoard() (*Expander, error) {
	b := machine.I2C0
	if err := b.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}
	return NewExpander(b, ExpanderConfig{})
}
