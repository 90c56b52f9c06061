// Package panel runs the cab control panel: it scans the switches, keeps
// the per-section ownership state, sends the knob speed to owned sections
// and renders the indicators. All of it happens on one goroutine driven by
// a schedule of next-due times; bus traffic reaches it through the same
// select loop, so the core state needs no locking.
package panel

import (
	"context"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/cbus"
	"cabcontrol-go/internal/util"
	"cabcontrol-go/services/config"
	"cabcontrol-go/services/panel/internal/control"
	"cabcontrol-go/services/panel/internal/indicators"
	"cabcontrol-go/services/panel/internal/sections"
	"cabcontrol-go/services/panel/internal/speed"
	"cabcontrol-go/services/panel/internal/switches"
	"cabcontrol-go/services/panel/internal/throttle"
	"cabcontrol-go/types"
	"cabcontrol-go/x/timex"
)

// Hardware is the panel's physical side.
type Hardware interface {
	// RawSwitch samples logical switch i (0..31), true when pressed.
	RawSwitch(i int) bool
	// LastReading is the latest knob sample, centre 128.
	LastReading() uint8
	// Render shows the indicator matrix, slot i in bit i.
	Render(bits uint32)
}

// Latcher is implemented by hardware that reads all switches in one go
// before a scan.
type Latcher interface {
	Latch() error
}

// AnalogueSampler is implemented by hardware whose knob must be sampled
// on the analogue cadence.
type AnalogueSampler interface {
	SampleAnalogue() error
}

var (
	topicConfigPanel = bus.T("config", "panel")

	TopicState   = bus.T("panel", "state")
	TopicSection = bus.T("panel", "section") // + section index
	TopicSpeed   = bus.T("panel", "speed")
	TopicSwitch  = bus.T("panel", "switch")
)

const (
	defaultSwitchEvery   = 2 * time.Millisecond
	defaultPotEvery      = 19 * time.Millisecond
	defaultLEDEvery      = 2 * time.Millisecond
	defaultAnalogueEvery = 6 * time.Millisecond
)

type Service struct {
	conn  *bus.Connection
	hw    Hardware
	sched *schedule
	tx    busSender

	cfg        types.PanelConfig
	configured bool
	running    bool
	lastErr    string

	reg     *sections.Registry
	ind     *indicators.Store
	scan    *switches.Scanner
	machine *control.Machine
	thr     *throttle.Broadcaster
	knob    speed.Tracker
	test    selfTest
}

func New(conn *bus.Connection, hw Hardware) *Service {
	return &Service{
		conn:  conn,
		hw:    hw,
		sched: newSchedule(),
		tx:    busSender{conn: conn},
		ind:   &indicators.Store{},
	}
}

// Start runs the service on its own goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks until ctx is cancelled. Nothing is polled until a panel
// configuration arrives on config/panel.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigPanel)
	defer s.conn.Unsubscribe(cfgSub)
	rxSub := s.conn.Subscribe(cbus.TopicRx)
	defer s.conn.Unsubscribe(rxSub)

	s.publishState("idle", "awaiting_config", nil)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if d, ok := s.sched.Wait(time.Now()); ok {
			util.ResetTimer(timer, d)
		} else {
			util.ResetTimer(timer, time.Hour)
		}

		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			s.onConfig(msg.Payload, time.Now())
		case msg, ok := <-rxSub.Channel():
			if !ok {
				s.publishState("error", "rx_subscription_closed", nil)
				return
			}
			s.onEvent(msg.Payload)
		case <-timer.C:
			s.sched.RunDue(time.Now())
		}
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func (s *Service) onConfig(payload any, now time.Time) {
	cfg := config.DefaultPanel()
	if err := util.DecodePayload(payload, &cfg); err != nil {
		s.publishState("error", "config_decode_failed", err)
		return
	}
	config.FillPanel(&cfg)
	if err := config.ValidatePanel(cfg); err != nil {
		s.publishState("error", "config_invalid", err)
		return
	}
	s.apply(cfg, now)
}

// apply rebuilds the core from cfg. Sections owned under the previous
// configuration are released first so other panels do not keep a stale
// claim.
func (s *Service) apply(cfg types.PanelConfig, now time.Time) {
	prev := 0
	if s.machine != nil {
		s.machine.ReleaseAll()
		prev = s.reg.Len()
	}
	s.sched.Clear()

	s.cfg = cfg
	s.configured = true
	s.running = false
	s.test = selfTest{}

	addrs := make([]cbus.Addr, len(cfg.Sections))
	for i, a := range cfg.Sections {
		addrs[i] = cbus.Addr{Node: a.Node, Event: a.Event}
	}
	s.reg = sections.New(addrs, cfg.SwitchToggle)
	s.ind = &indicators.Store{}
	s.scan = switches.New(s.hw, cfg.DebounceCycles)
	s.thr = throttle.New(s.reg, s.tx,
		throttle.Config{Acceleration: cfg.Acceleration, Frequency: cfg.Frequency},
		s.owned, s.scan.State)
	s.machine = control.New(control.Config{
		Node:          cfg.NodeID,
		ControlEvent:  cfg.ControlEvent,
		MasterPanel:   cfg.MasterPanel,
		StopOnRelease: cfg.StopOnRelease,
		SwitchToggle:  cfg.SwitchToggle,
	}, s.reg, s.ind, s.tx, s.thr)
	s.machine.OnChange = s.onSectionChange
	s.knob = speed.Tracker{Curve: speed.Curve{
		DeadZone: cfg.Pot.DeadZone,
		Start:    cfg.Pot.Start,
		End:      cfg.Pot.End,
	}}

	for i := 0; i < s.reg.Len(); i++ {
		s.publishSection(i, control.Idle)
	}
	// Sections dropped by the new configuration.
	for i := s.reg.Len(); i < prev; i++ {
		s.conn.Publish(s.conn.NewMessage(TopicSection.Append(i), nil, true))
	}

	delay := time.Duration(cfg.StartDelayMs)*time.Millisecond + timex.Deci(cfg.SODDelay)
	s.sched.Every("leds", timex.Ms(cfg.Timing.LEDMs, defaultLEDEvery), now, s.renderTask)
	s.sched.After("start", delay, now, s.start)
	s.publishState("idle", "start_delay", nil)
	println("[panel] configured: sections", s.reg.Len(), "node", cfg.NodeID)
}

func (s *Service) owned(i int) bool { return s.machine.Owned(i) }

// -----------------------------------------------------------------------------
// Scheduled tasks
// -----------------------------------------------------------------------------

func (s *Service) start(now time.Time) {
	s.latch()
	s.scan.Prime()
	if a, ok := s.hw.(AnalogueSampler); ok {
		if err := a.SampleAnalogue(); err != nil {
			s.hardwareError("analogue", err)
		}
		s.sched.Every("analogue", timex.Ms(s.cfg.Timing.AnalogueMs, defaultAnalogueEvery), now, s.analogueTask)
	}

	if s.cfg.SelfTest != 0 {
		s.startSelfTest(now)
		return
	}

	s.knob.Prime(s.hw.LastReading())
	s.sched.Every("switches", timex.Ms(s.cfg.Timing.SwitchMs, defaultSwitchEvery), now, s.switchTask)
	s.sched.Every("pot", timex.Ms(s.cfg.Timing.PotMs, defaultPotEvery), now, s.potTask)
	s.running = true

	if s.cfg.SODEvent != 0 {
		s.tx.Send(cbus.Event{Short: true, Node: s.cfg.NodeID, Event: s.cfg.SODEvent, On: true})
	}
	s.publishState("up", "running", nil)
}

func (s *Service) latch() bool {
	if l, ok := s.hw.(Latcher); ok {
		if err := l.Latch(); err != nil {
			s.hardwareError("latch", err)
			return false
		}
	}
	return true
}

func (s *Service) switchTask(time.Time) {
	if !s.latch() {
		return
	}
	s.scan.Poll(s.onSwitch)
}

func (s *Service) onSwitch(ev switches.Event) {
	s.conn.Publish(s.conn.NewMessage(TopicSwitch, types.SwitchEvent{
		Switch:  ev.Switch,
		Pressed: ev.Pressed,
		TS:      timex.NowMs(),
	}, false))
	if ev.Pressed {
		s.machine.SwitchPressed(ev.Switch)
	}
}

func (s *Service) potTask(time.Time) {
	sp, changed := s.knob.Observe(s.hw.LastReading())
	if !changed {
		return
	}
	s.thr.Update(sp)
	s.conn.Publish(s.conn.NewMessage(TopicSpeed, types.SpeedState{
		Reading: s.knob.Reading(),
		Speed:   sp,
		TS:      timex.NowMs(),
	}, true))
}

func (s *Service) analogueTask(time.Time) {
	if err := s.hw.(AnalogueSampler).SampleAnalogue(); err != nil {
		s.hardwareError("analogue", err)
	}
}

func (s *Service) renderTask(time.Time) {
	s.hw.Render(s.ind.Bits())
}

// -----------------------------------------------------------------------------
// Bus events
// -----------------------------------------------------------------------------

func (s *Service) onEvent(payload any) {
	ev, ok := payload.(cbus.Event)
	if !ok || !s.configured || s.cfg.SelfTest != 0 {
		return
	}
	// Our own events echoed back by the layout.
	if s.cfg.NodeID != 0 && ev.Node == s.cfg.NodeID {
		return
	}
	msg, ok := cbus.ParseClaim(ev, s.cfg.ControlEvent)
	if !ok {
		return
	}
	s.machine.Received(msg)
}

func (s *Service) onSectionChange(i int, from, to control.State) {
	println("[panel] section", i, from.String(), "->", to.String())
	s.publishSection(i, to)
}

func (s *Service) shutdown() {
	if s.machine != nil {
		s.machine.ReleaseAll()
	}
	s.sched.Clear()
	s.publishState("stopped", "context_cancelled", nil)
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

// busSender puts outbound events on cbus/tx.
type busSender struct{ conn *bus.Connection }

func (b busSender) Send(ev cbus.Event) {
	b.conn.Publish(b.conn.NewMessage(cbus.TopicTx, ev, false))
}

func (s *Service) publishSection(i int, st control.State) {
	sec, _ := s.reg.Get(i)
	s.conn.Publish(s.conn.NewMessage(TopicSection.Append(i), types.SectionState{
		Section: i,
		State:   st.String(),
		Node:    sec.Addr.Node,
		Event:   sec.Addr.Event,
		TS:      timex.NowMs(),
	}, true))
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
}

// hardwareError reports a failing hardware call once until a different
// error occurs.
func (s *Service) hardwareError(op string, err error) {
	msg := op + ": " + err.Error()
	if msg == s.lastErr {
		return
	}
	s.lastErr = msg
	println("[panel] hardware error:", msg)
	s.publishState("degraded", "hardware_error", err)
}
