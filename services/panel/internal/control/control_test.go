package control

import (
	"math/rand"
	"testing"

	"cabcontrol-go/cbus"
	"cabcontrol-go/services/panel/internal/indicators"
	"cabcontrol-go/services/panel/internal/sections"
	"cabcontrol-go/services/panel/internal/throttle"
)

const (
	us      = 0x0101
	control = 0xEA01
)

type recorder struct{ sent []cbus.Event }

func (r *recorder) Send(ev cbus.Event) { r.sent = append(r.sent, ev) }

func (r *recorder) reset() { r.sent = nil }

type fixture struct {
	m   *Machine
	reg *sections.Registry
	ind *indicators.Store
	rec *recorder
}

func newFixture(cfg Config, addrs ...cbus.Addr) *fixture {
	cfg.Node = us
	cfg.ControlEvent = control
	f := &fixture{
		reg: sections.New(addrs, cfg.SwitchToggle),
		ind: &indicators.Store{},
		rec: &recorder{},
	}
	b := throttle.New(f.reg, f.rec, throttle.Config{Acceleration: 1, Frequency: true},
		func(i int) bool { return f.m.Owned(i) }, func(int) bool { return false })
	f.m = New(cfg, f.reg, f.ind, f.rec, b)
	return f
}

var (
	secA = cbus.Addr{Node: 0x0200, Event: 1}
	secB = cbus.Addr{Node: 0x0200, Event: 2}
)

func remote(a cbus.Addr, on bool) cbus.ControlMessage {
	msg, _ := cbus.ParseClaim(cbus.ClaimEvent(0x0303, control, a, on), control)
	return msg
}

func (f *fixture) assertSlots(t *testing.T, i int, want State) {
	t.Helper()
	s, _ := f.reg.Get(i)
	our, other := f.ind.Test(s.OurSlot), f.ind.Test(s.OtherSlot)
	if our != (want == OwnedByUs) || other != (want == OwnedByOther) {
		t.Fatalf("section %d slots our=%v other=%v, want state %v", i, our, other, want)
	}
	if got := f.m.State(i); got != want {
		t.Fatalf("section %d state %v, want %v", i, got, want)
	}
}

func TestToggleRequestThenRelease(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true}, secA)

	f.m.SwitchPressed(0)
	f.assertSlots(t, 0, OwnedByUs)
	if len(f.rec.sent) != 1 {
		t.Fatalf("claim: sent %v", f.rec.sent)
	}
	claim := f.rec.sent[0]
	if !claim.Short || !claim.On || claim.Node != us || claim.Event != control {
		t.Fatalf("claim event %+v", claim)
	}
	if msg, ok := cbus.ParseClaim(claim, control); !ok || msg.Addr() != secA {
		t.Fatalf("claim names %+v", msg.Addr())
	}

	f.rec.reset()
	f.m.SwitchPressed(0)
	f.assertSlots(t, 0, Idle)
	if len(f.rec.sent) != 1 || f.rec.sent[0].On {
		t.Fatalf("release without stop_on_release: %v", f.rec.sent)
	}
}

func TestStopOnReleaseOrdering(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true, StopOnRelease: true}, secA)
	f.m.SwitchPressed(0)
	f.rec.reset()

	f.m.SwitchPressed(0)
	if len(f.rec.sent) != 2 {
		t.Fatalf("release sent %d events: %v", len(f.rec.sent), f.rec.sent)
	}
	stop, rel := f.rec.sent[0], f.rec.sent[1]
	if stop.Short || stop.Node != secA.Node || stop.Event != secA.Event || stop.Data[0] != 0 {
		t.Fatalf("first event is not a zero speed to the section: %+v", stop)
	}
	if !rel.Short || rel.On || rel.Event != control {
		t.Fatalf("second event is not the release claim: %+v", rel)
	}
	f.assertSlots(t, 0, Idle)
}

func TestMasterOverride(t *testing.T) {
	for _, master := range []bool{false, true} {
		f := newFixture(Config{SwitchToggle: true, MasterPanel: master}, secA)
		f.m.Received(remote(secA, true))
		f.assertSlots(t, 0, OwnedByOther)

		f.m.SwitchPressed(0)
		if master {
			f.assertSlots(t, 0, OwnedByUs)
			if len(f.rec.sent) != 1 {
				t.Fatalf("master takeover sent %v", f.rec.sent)
			}
		} else {
			f.assertSlots(t, 0, OwnedByOther)
			if len(f.rec.sent) != 0 {
				t.Fatalf("non-master press sent %v", f.rec.sent)
			}
		}
	}
}

func TestRemoteClaimOverridesOurs(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true}, secA, secB)
	f.m.SwitchPressed(0)
	f.m.SwitchPressed(2)

	f.m.Received(remote(secA, true))
	f.assertSlots(t, 0, OwnedByOther)
	f.assertSlots(t, 1, OwnedByUs)

	f.m.Received(remote(secA, false))
	f.assertSlots(t, 0, Idle)

	// A remote release clears our own claim too.
	f.m.Received(remote(secB, false))
	f.assertSlots(t, 1, Idle)
}

func TestTwoSwitchMode(t *testing.T) {
	f := newFixture(Config{StopOnRelease: true}, secA)

	f.m.SwitchPressed(1) // release switch while idle
	if len(f.rec.sent) != 0 {
		t.Fatalf("release on idle sent %v", f.rec.sent)
	}
	f.m.SwitchPressed(0)
	f.assertSlots(t, 0, OwnedByUs)

	// A second request press re-announces and keeps ownership.
	f.rec.reset()
	f.m.SwitchPressed(0)
	f.assertSlots(t, 0, OwnedByUs)
	if len(f.rec.sent) != 1 || !f.rec.sent[0].On {
		t.Fatalf("re-announce sent %v", f.rec.sent)
	}

	f.rec.reset()
	f.m.SwitchPressed(1)
	f.assertSlots(t, 0, Idle)
	if len(f.rec.sent) != 2 {
		t.Fatalf("release sent %v", f.rec.sent)
	}

	// The release switch never touches a section another panel owns.
	f.m.Received(remote(secA, true))
	f.rec.reset()
	f.m.SwitchPressed(1)
	f.assertSlots(t, 0, OwnedByOther)
	if len(f.rec.sent) != 0 {
		t.Fatalf("release on other's section sent %v", f.rec.sent)
	}
}

func TestUnconfiguredSectionIsInert(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true, StopOnRelease: true, MasterPanel: true}, cbus.Addr{Node: 0, Event: 3})

	f.m.SwitchPressed(0)
	f.m.Request(0)
	f.m.Release(0)
	f.m.Received(remote(cbus.Addr{Node: 0, Event: 3}, true))
	f.assertSlots(t, 0, Idle)
	if len(f.rec.sent) != 0 {
		t.Fatalf("unconfigured section sent %v", f.rec.sent)
	}
}

func TestIdempotentRelease(t *testing.T) {
	f := newFixture(Config{StopOnRelease: true}, secA)
	f.m.Release(0)
	f.m.Release(0)
	f.assertSlots(t, 0, Idle)
	if len(f.rec.sent) != 0 {
		t.Fatalf("release of idle section sent %v", f.rec.sent)
	}
}

func TestOutOfRangeIgnored(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true}, secA)
	f.m.SwitchPressed(31)
	f.m.SwitchPressed(-1)
	f.m.Request(4)
	f.m.Release(-2)
	if len(f.rec.sent) != 0 || f.ind.Bits() != 0 {
		t.Fatalf("out-of-range input had effects: %v %032b", f.rec.sent, f.ind.Bits())
	}
	if f.m.State(9) != Idle {
		t.Fatal("out-of-range state")
	}
}

func TestOnChangeAndCounts(t *testing.T) {
	f := newFixture(Config{SwitchToggle: true}, secA, secB)
	var changes []State
	f.m.OnChange = func(_ int, _, to State) { changes = append(changes, to) }

	f.m.SwitchPressed(0)
	f.m.Received(remote(secB, true))
	f.m.Received(remote(secB, true)) // no change

	if len(changes) != 2 || changes[0] != OwnedByUs || changes[1] != OwnedByOther {
		t.Fatalf("changes %v", changes)
	}
	if ours, others := f.m.Counts(); ours != 1 || others != 1 {
		t.Fatalf("counts %d %d", ours, others)
	}

	f.rec.reset()
	f.m.ReleaseAll()
	if ours, _ := f.m.Counts(); ours != 0 || len(f.rec.sent) != 1 {
		t.Fatalf("ReleaseAll left %d owned, sent %v", ours, f.rec.sent)
	}
}

func TestSlotsNeverBothSet(t *testing.T) {
	addrs := []cbus.Addr{secA, secB, {Node: 0x0200, Event: 3}, {}}
	for _, toggle := range []bool{true, false} {
		f := newFixture(Config{SwitchToggle: toggle, MasterPanel: true, StopOnRelease: true}, addrs...)
		rng := rand.New(rand.NewSource(1))
		for step := 0; step < 2000; step++ {
			switch rng.Intn(4) {
			case 0, 1:
				f.m.SwitchPressed(rng.Intn(10))
			case 2:
				f.m.Received(remote(addrs[rng.Intn(len(addrs))], rng.Intn(2) == 0))
			case 3:
				f.m.Release(rng.Intn(len(addrs)))
			}
			for i := 0; i < f.reg.Len(); i++ {
				s, _ := f.reg.Get(i)
				if f.ind.Test(s.OurSlot) && f.ind.Test(s.OtherSlot) {
					t.Fatalf("toggle=%v step %d: section %d has both slots set", toggle, step, i)
				}
			}
		}
	}
}
