package panel

import (
	"time"

	"cabcontrol-go/services/panel/internal/indicators"
	"cabcontrol-go/services/panel/internal/switches"
	"cabcontrol-go/x/timex"
)

// Self-test modes.
const (
	SelfTestLamps = 1 // rows, then bit positions, then switch mirror
	SelfTestWalk  = 2 // one slot lit, advancing every second
	SelfTestPot   = 3 // slot chosen by the knob
)

const (
	lampRowPhases  = indicators.Rows
	lampBitPhases  = indicators.RowBits
	lampMirrorFrom = lampRowPhases + lampBitPhases
	lampPhases     = lampMirrorFrom + 11
)

type selfTest struct {
	phase int
	led   int
}

func (s *Service) startSelfTest(now time.Time) {
	println("[panel] self test", s.cfg.SelfTest)
	switch s.cfg.SelfTest {
	case SelfTestLamps:
		s.lampPhase()
		s.sched.Every("selftest", time.Second, now, func(time.Time) {
			s.test.phase = (s.test.phase + 1) % lampPhases
			s.lampPhase()
		})
		s.sched.Every("switches", timex.Ms(s.cfg.Timing.SwitchMs, defaultSwitchEvery), now, func(time.Time) {
			if !s.latch() {
				return
			}
			s.scan.Poll(nil)
			if s.test.phase >= lampMirrorFrom {
				s.mirrorSwitches()
			}
		})
	case SelfTestWalk:
		s.test.led = 0
		s.ind.Load(1)
		s.sched.Every("selftest", time.Second, now, func(time.Time) {
			s.test.led = (s.test.led + 1) % indicators.Count
			s.ind.Load(1 << uint(s.test.led))
		})
	case SelfTestPot:
		s.potLamp()
		s.sched.Every("selftest", timex.Ms(s.cfg.Timing.PotMs, defaultPotEvery), now, func(time.Time) {
			s.potLamp()
		})
	}
	s.publishState("up", "self_test", nil)
}

func (s *Service) lampPhase() {
	p := s.test.phase
	switch {
	case p < lampRowPhases:
		s.ind.Load(0xFF << (uint(p) * indicators.RowBits))
	case p < lampMirrorFrom:
		b := uint32(1) << uint(p-lampRowPhases)
		s.ind.Load(b | b<<8 | b<<16 | b<<24)
	default:
		s.mirrorSwitches()
	}
}

func (s *Service) mirrorSwitches() {
	for i := 0; i < switches.Count; i++ {
		s.ind.Put(i, s.scan.State(i))
	}
}

func (s *Service) potLamp() {
	s.ind.Load(1 << uint(s.hw.LastReading()>>3))
}
