package config

import (
	"strconv"

	"cabcontrol-go/errcode"
	"cabcontrol-go/types"
)

const (
	// MaxSections is the panel's section capacity.
	MaxSections = 16
	// DefaultControlEvent is the short event number claims travel on.
	DefaultControlEvent = 0xEA01
)

// DefaultPanel returns the factory settings. Sections are left nil so a
// decoded list replaces them whole; FillPanel adds the default list.
func DefaultPanel() types.PanelConfig {
	return types.PanelConfig{
		MasterPanel:    true,
		StopOnRelease:  true,
		Pot:            types.PotCurve{DeadZone: 10, Start: 5, End: 127},
		Acceleration:   1,
		Frequency:      true,
		ControlEvent:   DefaultControlEvent,
		StartDelayMs:   2000,
		DebounceCycles: 4,
		Timing:         types.Timing{SwitchMs: 2, PotMs: 19, LEDMs: 2, AnalogueMs: 6},
	}
}

// FillPanel supplies defaults for fields a decoded document left empty.
func FillPanel(cfg *types.PanelConfig) {
	if cfg.Sections == nil {
		cfg.Sections = make([]types.SectionAddr, MaxSections)
		for i := range cfg.Sections {
			cfg.Sections[i] = types.SectionAddr{Node: 0, Event: uint16(i % 4)}
		}
	}
	if cfg.ControlEvent == 0 {
		cfg.ControlEvent = DefaultControlEvent
	}
	if cfg.DebounceCycles == 0 {
		cfg.DebounceCycles = 4
	}
}

// ValidatePanel checks ranges. Errors are *errcode.E with InvalidParams.
func ValidatePanel(cfg types.PanelConfig) error {
	const op = "validate panel"
	for _, f := range []struct {
		name string
		v    uint8
	}{
		{"pot.dead_zone", cfg.Pot.DeadZone},
		{"pot.start", cfg.Pot.Start},
		{"pot.end", cfg.Pot.End},
		{"acceleration", cfg.Acceleration},
	} {
		if f.v > 127 {
			return errcode.Invalid(op, f.name+" must be 0..127")
		}
	}
	if len(cfg.Sections) > MaxSections {
		return errcode.Invalid(op, "at most "+strconv.Itoa(MaxSections)+" sections")
	}
	for i, s := range cfg.Sections {
		// Claims carry one byte of event number.
		if s.Node != 0 && s.Event > 0xFF {
			return errcode.Invalid(op, "sections["+strconv.Itoa(i)+"].event must be 0..255")
		}
	}
	if cfg.StartDelayMs < 0 {
		return errcode.Invalid(op, "start_delay_ms must not be negative")
	}
	t := cfg.Timing
	if t.SwitchMs < 0 || t.PotMs < 0 || t.LEDMs < 0 || t.AnalogueMs < 0 {
		return errcode.Invalid(op, "timing values must not be negative")
	}
	if cfg.SelfTest > 3 {
		return errcode.Invalid(op, "self_test must be 0..3")
	}
	return nil
}
