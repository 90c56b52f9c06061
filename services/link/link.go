// Package link carries layout events between the local bus and a serial
// connection to the layout interface. Events published on cbus/tx are
// framed onto the wire; events read from the wire appear on cbus/rx.
package link

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/cbus"
	"cabcontrol-go/internal/util"
	"cabcontrol-go/types"
	"cabcontrol-go/x/timex"
)

var (
	topicConfig = bus.T("config", "link")
	TopicState  = bus.T("link", "state")
)

const pingEvery = 5 * time.Second

// Start runs the link service until ctx is cancelled. It waits for a
// types.LinkConfig on config/link and (re)opens the link on each one.
func Start(ctx context.Context, conn *bus.Connection) {
	s := &Service{conn: conn}
	s.run(ctx)
}

type Service struct {
	conn *bus.Connection

	mu     sync.Mutex
	curRun context.CancelFunc
	wg     sync.WaitGroup
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			var cfg types.LinkConfig
			if err := util.DecodePayload(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) reconfigure(parent context.Context, cfg types.LinkConfig) {
	s.stopCurrent()

	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.curRun = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLink(ctx, cfg)
	}()
}

// -----------------------------------------------------------------------------
// Link supervision and I/O
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg types.LinkConfig) {
	tr, err := newTransport(cfg)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		if ctx.Err() != nil {
			return
		}

		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%w (retry in %s)", err, delay))
			if !util.Sleep(ctx, delay) {
				return
			}
			continue
		}

		println("[link] up:", tr.String())
		err = s.handleLink(ctx, rwc)
		_ = rwc.Close()
		if err == nil {
			return
		}
		delay := backoff()
		println("[link] lost:", err.Error())
		s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%w (retry in %s)", err, delay))
		if !util.Sleep(ctx, delay) {
			return
		}
	}
}

// handleLink owns one open link. It returns nil when ctx ends and the
// read or write error otherwise.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser) error {
	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)

	txSub := s.conn.Subscribe(cbus.TopicTx)
	defer s.conn.Unsubscribe(txSub)
	s.publishState("up", "link_established", nil)

	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case framePing:
				if err := wr.WriteFrame(Frame{Type: framePong}); err != nil {
					errCh <- err
					return
				}
			case frameEvent:
				ev, err := cbus.ParseBinary(f.Payload)
				if err != nil {
					println("[link] dropped frame:", err.Error())
					continue
				}
				s.conn.Publish(s.conn.NewMessage(cbus.TopicRx, ev, false))
			case frameClose:
				errCh <- io.EOF
				return
			default:
				// pong and unknown frames
			}
		}
	}()

	tick := time.NewTicker(pingEvery)
	defer tick.Stop()

	var buf []byte
	for {
		select {
		case <-ctx.Done():
			_ = wr.WriteFrame(Frame{Type: frameClose})
			return nil
		case err := <-errCh:
			return err
		case msg, ok := <-txSub.Channel():
			if !ok {
				return nil
			}
			ev, ok := msg.Payload.(cbus.Event)
			if !ok {
				continue
			}
			var err error
			if buf, err = ev.AppendBinary(buf[:0]); err != nil {
				println("[link] bad event:", err.Error())
				continue
			}
			if err := wr.WriteFrame(Frame{Type: frameEvent, Payload: buf}); err != nil {
				return err
			}
		case <-tick.C:
			if err := wr.WriteFrame(Frame{Type: framePing}); err != nil {
				return err
			}
		}
	}
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}
