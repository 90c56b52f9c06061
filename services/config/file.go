package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"cabcontrol-go/bus"
	"cabcontrol-go/errcode"
	"cabcontrol-go/types"
)

// File is the host configuration file.
type File struct {
	Panel     types.PanelConfig      `yaml:"panel"`
	Link      *types.LinkConfig      `yaml:"link,omitempty"`
	Heartbeat *types.HeartbeatConfig `yaml:"heartbeat,omitempty"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, errcode.Wrap(errcode.InvalidConfig, "read "+path, err)
	}
	return Parse(b)
}

// Parse decodes YAML onto the factory defaults and validates the panel
// section.
func Parse(b []byte) (File, error) {
	f := File{Panel: DefaultPanel()}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, errcode.Wrap(errcode.InvalidConfig, "parse", err)
	}
	FillPanel(&f.Panel)
	if err := ValidatePanel(f.Panel); err != nil {
		return File{}, err
	}
	return f, nil
}

// Publish puts f on the bus as retained config/<key> messages.
func Publish(conn *bus.Connection, f File) {
	conn.Publish(conn.NewMessage(bus.T(configPrefix, KeyPanel), f.Panel, true))
	if f.Link != nil {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, KeyLink), *f.Link, true))
	}
	if f.Heartbeat != nil {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, KeyHeartbeat), *f.Heartbeat, true))
	}
}
