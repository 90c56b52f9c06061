// Package monitor logs bus traffic for the host commands.
package monitor

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"cabcontrol-go/bus"
	"cabcontrol-go/cbus"
	"cabcontrol-go/types"
)

// TopicString renders t as slash-separated tokens.
func TopicString(t bus.Topic) string {
	parts := make([]string, len(t))
	for i, tok := range t {
		switch v := tok.(type) {
		case string:
			parts[i] = v
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = "?"
		}
	}
	return strings.Join(parts, "/")
}

// Run logs every message on topics until ctx ends.
func Run(ctx context.Context, conn *bus.Connection, log zerolog.Logger, topics ...bus.Topic) {
	out := make(chan *bus.Message, 32)
	for _, t := range topics {
		sub := conn.Subscribe(t)
		defer conn.Unsubscribe(sub)
		go func() {
			for m := range sub.Channel() {
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-out:
			Log(log, m)
		}
	}
}

// Log writes one message.
func Log(log zerolog.Logger, m *bus.Message) {
	topic := TopicString(m.Topic)
	switch p := m.Payload.(type) {
	case types.SectionState:
		log.Info().Str("topic", topic).Int("section", p.Section).
			Uint16("node", p.Node).Uint16("event", p.Event).Msg(p.State)
	case types.ServiceState:
		ev := log.Info()
		switch p.Level {
		case "error":
			ev = log.Error()
		case "degraded":
			ev = log.Warn()
		}
		if p.Error != "" {
			ev = ev.Str("error", p.Error)
		}
		ev.Str("topic", topic).Str("level", p.Level).Msg(p.Status)
	case types.SpeedState:
		log.Debug().Str("topic", topic).Uint8("reading", p.Reading).Int8("speed", p.Speed).Msg("speed")
	case types.SwitchEvent:
		log.Debug().Str("topic", topic).Int("switch", p.Switch).Bool("pressed", p.Pressed).Msg("switch")
	case types.Heartbeat:
		log.Info().Str("topic", topic).Int("owned", p.Owned).Int("other", p.Other).Int64("uptime_s", p.Uptime).Msg("heartbeat")
	case cbus.Event:
		log.Debug().Str("topic", topic).Hex("opcode", []byte{p.Opcode()}).
			Uint16("node", p.Node).Uint16("event", p.Event).Bool("on", p.On).Hex("data", p.Data).Msg("event")
	default:
		log.Debug().Str("topic", topic).Interface("payload", p).Msg("message")
	}
}
