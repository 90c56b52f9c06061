package types

// ServiceState is the retained {level,status} record each service keeps
// on its state topic.
type ServiceState struct {
	Level  string `json:"level"`  // "idle", "up", "degraded", "error", "stopped"
	Status string `json:"status"` // short machine string
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// SectionState is retained on panel/section/<i>.
type SectionState struct {
	Section int    `json:"section"`
	State   string `json:"state"` // "idle", "owned_by_other", "owned_by_us"
	Node    uint16 `json:"node"`
	Event   uint16 `json:"event"`
	TS      int64  `json:"ts_ms"`
}

// SpeedState is retained on panel/speed after every broadcast speed change.
type SpeedState struct {
	Reading uint8 `json:"reading"`
	Speed   int8  `json:"speed"`
	TS      int64 `json:"ts_ms"`
}

// SwitchEvent is published on panel/switch for each committed edge.
type SwitchEvent struct {
	Switch  int   `json:"switch"`
	Pressed bool  `json:"pressed"`
	TS      int64 `json:"ts_ms"`
}

// Heartbeat is retained on panel/heartbeat.
type Heartbeat struct {
	Owned  int   `json:"owned"`
	Other  int   `json:"other"`
	Uptime int64 `json:"uptime_s"`
	TS     int64 `json:"ts_ms"`
}
