package config

import (
	"strings"
	"testing"

	"cabcontrol-go/errcode"
	"cabcontrol-go/types"
)

func TestFillPanelDefaultSections(t *testing.T) {
	cfg := DefaultPanel()
	FillPanel(&cfg)
	if len(cfg.Sections) != MaxSections {
		t.Fatalf("sections = %d", len(cfg.Sections))
	}
	for i, s := range cfg.Sections {
		if s.Node != 0 || s.Event != uint16(i%4) {
			t.Fatalf("section %d = %+v", i, s)
		}
	}
	if err := ValidatePanel(cfg); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestFillPanelKeepsExplicitSections(t *testing.T) {
	cfg := DefaultPanel()
	cfg.Sections = []types.SectionAddr{{Node: 3, Event: 9}}
	cfg.ControlEvent = 0
	cfg.DebounceCycles = 0
	FillPanel(&cfg)
	if len(cfg.Sections) != 1 || cfg.Sections[0].Event != 9 {
		t.Fatalf("sections replaced: %+v", cfg.Sections)
	}
	if cfg.ControlEvent != DefaultControlEvent || cfg.DebounceCycles != 4 {
		t.Fatalf("zero fields not filled: %+v", cfg)
	}
}

func TestValidatePanel(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*types.PanelConfig)
		want string
	}{
		{"dead zone", func(c *types.PanelConfig) { c.Pot.DeadZone = 128 }, "pot.dead_zone"},
		{"end", func(c *types.PanelConfig) { c.Pot.End = 255 }, "pot.end"},
		{"acceleration", func(c *types.PanelConfig) { c.Acceleration = 200 }, "acceleration"},
		{"too many sections", func(c *types.PanelConfig) { c.Sections = make([]types.SectionAddr, 17) }, "sections"},
		{"wide event", func(c *types.PanelConfig) { c.Sections = []types.SectionAddr{{Node: 1, Event: 0x100}} }, "sections[0].event"},
		{"start delay", func(c *types.PanelConfig) { c.StartDelayMs = -1 }, "start_delay_ms"},
		{"timing", func(c *types.PanelConfig) { c.Timing.PotMs = -5 }, "timing"},
		{"self test", func(c *types.PanelConfig) { c.SelfTest = 4 }, "self_test"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPanel()
			FillPanel(&cfg)
			tc.mut(&cfg)
			err := ValidatePanel(cfg)
			if errcode.Of(err) != errcode.InvalidParams {
				t.Fatalf("err = %v, want invalid_params", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err %q does not name %q", err, tc.want)
			}
		})
	}

	// An unconfigured section may carry any event number.
	cfg := DefaultPanel()
	cfg.Sections = []types.SectionAddr{{Node: 0, Event: 0x1234}}
	if err := ValidatePanel(cfg); err != nil {
		t.Fatalf("unconfigured wide event rejected: %v", err)
	}
}

func TestParseYAML(t *testing.T) {
	f, err := Parse([]byte(`
panel:
  node_id: 300
  switch_toggle: false
  pot: {dead_zone: 4}
  sections:
    - {node: 512, event: 1}
    - {node: 512, event: 2}
link:
  transport: serial
  serial: {port: /dev/ttyUSB0, baud: 115200, parity: even}
heartbeat:
  interval: 10
`))
	if err != nil {
		t.Fatal(err)
	}
	p := f.Panel
	if p.NodeID != 300 || p.SwitchToggle || p.Pot.DeadZone != 4 || p.Pot.End != 127 {
		t.Fatalf("panel %+v", p)
	}
	if len(p.Sections) != 2 || p.Sections[1] != (types.SectionAddr{Node: 512, Event: 2}) {
		t.Fatalf("sections %+v", p.Sections)
	}
	if f.Link == nil || f.Link.Serial == nil || f.Link.Serial.Port != "/dev/ttyUSB0" || f.Link.Serial.Parity != types.ParityEven {
		t.Fatalf("link %+v", f.Link)
	}
	if f.Heartbeat == nil || f.Heartbeat.Interval != 10 {
		t.Fatalf("heartbeat %+v", f.Heartbeat)
	}
}

func TestParseYAMLRejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte("panel: {acceleration: 130}")); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err = %v", err)
	}
	if _, err := Parse([]byte("panel: [1, 2")); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("err = %v", err)
	}
}
