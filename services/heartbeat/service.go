package heartbeat

import (
	"context"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/internal/util"
	"cabcontrol-go/types"
	"cabcontrol-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicSections        = bus.T("panel", "section", "+")

	TopicHeartbeat = bus.T("panel", "heartbeat")
)

const defaultInterval = 1 * time.Second

// Service periodically reports how many sections this panel and other
// panels hold.
type Service struct {
	states map[int]string
	start  time.Time
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	secSub := conn.Subscribe(topicSections)
	defer conn.Unsubscribe(secSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case t := <-tick.C:
			hb := s.snapshot(t)
			println("Info:", t.Format("15:04:05"), "Heartbeat owned", hb.Owned, "other", hb.Other)
			conn.Publish(conn.NewMessage(TopicHeartbeat, hb, true))
		case msg := <-secSub.Channel():
			st, ok := msg.Payload.(types.SectionState)
			if ok {
				s.states[st.Section] = st.State
			} else if i, isIdx := msg.Topic[len(msg.Topic)-1].(int); isIdx {
				// cleared section
				delete(s.states, i)
			}
		case msg := <-cfgSub.Channel():
			var cfg types.HeartbeatConfig
			if err := util.DecodePayload(msg.Payload, &cfg); err != nil {
				println("Info:", "Ignoring heartbeat config:", err.Error())
				continue
			}
			if cfg.Interval > 0 {
				tick.Reset(time.Duration(cfg.Interval * float64(time.Second)))
				println("Info:", "Heartbeat interval set to", cfg.Interval, "seconds")
			}
		}
	}
}

func (s *Service) snapshot(now time.Time) types.Heartbeat {
	hb := types.Heartbeat{Uptime: int64(now.Sub(s.start) / time.Second), TS: timex.NowMs()}
	for _, st := range s.states {
		switch st {
		case "owned_by_us":
			hb.Owned++
		case "owned_by_other":
			hb.Other++
		}
	}
	return hb
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.states = make(map[int]string)
	s.start = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
