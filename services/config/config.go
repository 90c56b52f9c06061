package config

import (
	"context"
	"encoding/json"
	"errors"

	"cabcontrol-go/bus"
	"cabcontrol-go/errcode"
	"cabcontrol-go/internal/util"
	"cabcontrol-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID

	KeyPanel     = "panel"
	KeyLink      = "link"
	KeyHeartbeat = "heartbeat"
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the device config from embedded data and publishes
// each top-level key as a retained config/<key> message. Known keys are
// decoded, defaulted and validated first; nothing is published when one
// of them is invalid.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "embedded", err)
	}

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		p, err := decodeKey(k, v)
		if err != nil {
			return err
		}
		out[k] = p
	}
	for k, p := range out {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), p, true))
	}
	return nil
}

func decodeKey(key string, raw json.RawMessage) (any, error) {
	switch key {
	case KeyPanel:
		cfg := DefaultPanel()
		if err := util.DecodePayload([]byte(raw), &cfg); err != nil {
			return nil, errcode.Wrap(errcode.InvalidConfig, key, err)
		}
		FillPanel(&cfg)
		if err := ValidatePanel(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case KeyLink:
		var cfg types.LinkConfig
		if err := util.DecodePayload([]byte(raw), &cfg); err != nil {
			return nil, errcode.Wrap(errcode.InvalidConfig, key, err)
		}
		return cfg, nil
	case KeyHeartbeat:
		var cfg types.HeartbeatConfig
		if err := util.DecodePayload([]byte(raw), &cfg); err != nil {
			return nil, errcode.Wrap(errcode.InvalidConfig, key, err)
		}
		return cfg, nil
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errcode.Wrap(errcode.InvalidConfig, key, err)
		}
		return v, nil
	}
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}
