package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Parity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "even":
		*p = ParityEven
	case "odd":
		*p = ParityOdd
	default:
		*p = ParityNone
	}
	return nil
}

// SerialConfig opens the event link. Port is used on hosts, the pins on
// microcontrollers.
type SerialConfig struct {
	Port     string `json:"port,omitempty" yaml:"port,omitempty"`
	Baud     uint32 `json:"baud" yaml:"baud"`
	TxPin    int    `json:"tx_pin,omitempty" yaml:"tx_pin,omitempty"`
	RxPin    int    `json:"rx_pin,omitempty" yaml:"rx_pin,omitempty"`
	DataBits uint8  `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits uint8  `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity   Parity `json:"parity,omitempty" yaml:"parity,omitempty"`
}
