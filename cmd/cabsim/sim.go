package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cabcontrol-go/bus"
	"cabcontrol-go/cbus"
	"cabcontrol-go/internal/monitor"
	"cabcontrol-go/platform"
	"cabcontrol-go/services/config"
	"cabcontrol-go/services/panel"
	"cabcontrol-go/types"
)

const pressHold = 30 * time.Millisecond

// simPanel is one panel with its own bus and in-memory hardware.
type simPanel struct {
	name string
	cfg  types.PanelConfig
	bus  *bus.Bus
	conn *bus.Connection
	hw   *platform.Fake
}

// sim joins panels as if they shared one layout bus: every event a panel
// sends is delivered to all the others.
type sim struct {
	panels []*simPanel
	log    zerolog.Logger
}

func defaultPanels() []types.PanelConfig {
	secs := []types.SectionAddr{{Node: 512, Event: 1}, {Node: 512, Event: 2}, {Node: 512, Event: 3}, {Node: 512, Event: 4}}
	a := config.DefaultPanel()
	a.NodeID = 0x0101
	a.SwitchToggle = true
	a.Sections = secs
	a.StartDelayMs = 100

	b := a
	b.NodeID = 0x0102
	b.MasterPanel = false
	return []types.PanelConfig{a, b}
}

func newSim(log zerolog.Logger, cfgs ...types.PanelConfig) *sim {
	s := &sim{log: log}
	for i, c := range cfgs {
		config.FillPanel(&c)
		b := bus.NewBus(32)
		s.panels = append(s.panels, &simPanel{
			name: string(rune('a' + i)),
			cfg:  c,
			bus:  b,
			conn: b.NewConnection("sim"),
			hw:   platform.NewFake(),
		})
	}
	return s
}

func (s *sim) start(ctx context.Context) {
	for _, p := range s.panels {
		p.conn.Publish(p.conn.NewMessage(bus.T("config", "panel"), p.cfg, true))
		go panel.New(p.bus.NewConnection("panel"), p.hw).Run(ctx)
		go monitor.Run(ctx, p.bus.NewConnection("monitor"), s.log.With().Str("panel", p.name).Logger(),
			panel.TopicSection.Append("+"), panel.TopicState)

		txSub := p.bus.NewConnection("hub").Subscribe(cbus.TopicTx)
		go s.forward(ctx, p, txSub)
	}
}

func (s *sim) forward(ctx context.Context, from *simPanel, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.Channel():
			for _, to := range s.panels {
				if to != from {
					to.conn.Publish(to.conn.NewMessage(cbus.TopicRx, m.Payload, false))
				}
			}
		}
	}
}

func (s *sim) panel(name string) (*simPanel, bool) {
	for _, p := range s.panels {
		if p.name == strings.ToLower(name) {
			return p, true
		}
	}
	return nil, false
}

// press holds switch i for pressHold.
func (p *simPanel) press(ctx context.Context, i int) {
	p.hw.SetSwitch(i, true)
	select {
	case <-ctx.Done():
	case <-time.After(pressHold):
	}
	p.hw.SetSwitch(i, false)
}

// sectionState returns the retained state of section i, or "" if none.
func (p *simPanel) sectionState(i int) string {
	sub := p.conn.Subscribe(panel.TopicSection.Append(i))
	defer p.conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		if st, ok := m.Payload.(types.SectionState); ok {
			return st.State
		}
	default:
	}
	return ""
}
