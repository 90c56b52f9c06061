package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgCabPanel = `{
  "panel": {
    "node_id": 256,
    "master_panel": true,
    "stop_on_release": true,
    "switch_toggle": true,
    "pot": {"dead_zone": 10, "start": 5, "end": 127},
    "acceleration": 1,
    "frequency": true,
    "control_event": 59905,
    "start_delay_ms": 2000
  },
  "link": {
    "transport": "serial",
    "serial": {"baud": 115200, "tx_pin": 0, "rx_pin": 1}
  },
  "heartbeat": {
    "interval": 5
  }
}`

var embeddedConfigs = map[string][]byte{
	"cabpanel": []byte(cfgCabPanel),
}
