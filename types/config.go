package types

// Panel configuration supplied on topic "config/panel".

type PanelConfig struct {
	// NodeID is this panel's node number. Inbound events produced by it
	// are ignored.
	NodeID uint16 `json:"node_id" yaml:"node_id"`

	MasterPanel   bool `json:"master_panel" yaml:"master_panel"`
	StopOnRelease bool `json:"stop_on_release" yaml:"stop_on_release"`
	SwitchToggle  bool `json:"switch_toggle" yaml:"switch_toggle"`

	Pot          PotCurve `json:"pot" yaml:"pot"`
	Acceleration uint8    `json:"acceleration" yaml:"acceleration"`
	Frequency    bool     `json:"frequency" yaml:"frequency"`

	Sections []SectionAddr `json:"sections" yaml:"sections"`

	// ControlEvent is the short event number that carries section claims.
	ControlEvent uint16 `json:"control_event" yaml:"control_event"`
	// SODEvent is sent once after start when non-zero.
	SODEvent uint16 `json:"sod_event" yaml:"sod_event"`
	// SODDelay is in tenths of a second, on top of StartDelayMs.
	SODDelay uint8 `json:"sod_delay" yaml:"sod_delay"`

	StartDelayMs   int    `json:"start_delay_ms" yaml:"start_delay_ms"`
	DebounceCycles uint8  `json:"debounce_cycles" yaml:"debounce_cycles"`
	Timing         Timing `json:"timing" yaml:"timing"`

	// SelfTest selects an indicator/switch test instead of normal
	// operation: 0 off, 1 lamps, 2 walk, 3 pot.
	SelfTest uint8 `json:"self_test" yaml:"self_test"`
}

// PotCurve shapes the speed knob. All values are 0..127.
type PotCurve struct {
	DeadZone uint8 `json:"dead_zone" yaml:"dead_zone"`
	Start    uint8 `json:"start" yaml:"start"`
	End      uint8 `json:"end" yaml:"end"`
}

// SectionAddr is the event pair shared by every panel that can drive a
// section. Node 0 leaves the section unconfigured.
type SectionAddr struct {
	Node  uint16 `json:"node" yaml:"node"`
	Event uint16 `json:"event" yaml:"event"`
}

// Timing holds the loop cadences in milliseconds; zero selects the default.
type Timing struct {
	SwitchMs   int `json:"switch_ms,omitempty" yaml:"switch_ms,omitempty"`
	PotMs      int `json:"pot_ms,omitempty" yaml:"pot_ms,omitempty"`
	LEDMs      int `json:"led_ms,omitempty" yaml:"led_ms,omitempty"`
	AnalogueMs int `json:"analogue_ms,omitempty" yaml:"analogue_ms,omitempty"`
}

// LinkConfig is expected on "config/link".
type LinkConfig struct {
	Transport string        `json:"transport" yaml:"transport"`
	Serial    *SerialConfig `json:"serial,omitempty" yaml:"serial,omitempty"`
}

// HeartbeatConfig is expected on "config/heartbeat".
type HeartbeatConfig struct {
	Interval float64 `json:"interval" yaml:"interval"` // seconds
}
