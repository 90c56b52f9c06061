package cbus

import "cabcontrol-go/bus"

// Events this node sends are published on TopicTx; events heard from the
// layout arrive on TopicRx.
var (
	TopicTx = bus.T("cbus", "tx")
	TopicRx = bus.T("cbus", "rx")
)
