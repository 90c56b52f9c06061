package bus_test

import (
	"sort"
	"testing"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/cbus"
	"cabcontrol-go/types"
)

func section(i int, state string) types.SectionState {
	return types.SectionState{Section: i, State: state, Node: 0x0200, Event: uint16(i + 1)}
}

func TestEventsReachSubscriber(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("link")
	sub := conn.Subscribe(cbus.TopicTx)

	ev := cbus.Event{Node: 0x0200, Event: 1, On: true, Data: []byte{60, 0x81, 0}}
	conn.Publish(conn.NewMessage(cbus.TopicTx, ev, false))

	select {
	case got := <-sub.Channel():
		out, ok := got.Payload.(cbus.Event)
		if !ok || out.Node != ev.Node || out.Event != ev.Event || out.Data[0] != 60 {
			t.Fatalf("payload %#v", got.Payload)
		}
		if got.Retained {
			t.Fatal("event delivered as retained")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event on cbus/tx")
	}
}

func TestRetainedSectionState(t *testing.T) {
	b := bus.NewBus(2)
	conn := b.NewConnection("panel")
	conn.Publish(conn.NewMessage(bus.T("panel", "section", 0), section(0, "owned_by_us"), true))
	conn.Publish(conn.NewMessage(bus.T("panel", "section", 0), section(0, "idle"), true))

	late := b.NewConnection("heartbeat").Subscribe(bus.T("panel", "section", 0))
	expectStates(t, late, "idle")
	expectNoMessage(t, late)
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcard_SectionIndex(t *testing.T) {
	b := bus.NewBus(16)
	c := b.NewConnection("test")

	anySection := c.Subscribe(bus.T("panel", "section", "+"))
	anyPanel := c.Subscribe(bus.T("panel", "+", "+"))
	onlyTwo := c.Subscribe(bus.T("panel", "section", 2))
	speeds := c.Subscribe(bus.T("panel", "+", "speed"))

	c.Publish(b.NewMessage(bus.T("panel", "section", 2), section(2, "owned_by_other"), false))
	expectStates(t, anySection, "owned_by_other")
	expectStates(t, anyPanel, "owned_by_other")
	expectStates(t, onlyTwo, "owned_by_other")
	expectNoMessage(t, speeds)

	c.Publish(b.NewMessage(bus.T("panel", "section", 3), section(3, "idle"), false))
	expectStates(t, anySection, "idle")
	expectStates(t, anyPanel, "idle")
	expectNoMessage(t, onlyTwo)

	// One level short of panel/section/+.
	c.Publish(b.NewMessage(bus.T("panel", "speed"), types.SpeedState{Reading: 200, Speed: 60}, false))
	expectNoMessage(t, anySection)
	expectNoMessage(t, anyPanel)
	expectNoMessage(t, speeds)
}

func TestWildcard_Rest(t *testing.T) {
	b := bus.NewBus(16)
	c := b.NewConnection("monitor")

	everything := c.Subscribe(bus.T("#"))
	panel := c.Subscribe(bus.T("panel", "#"))
	sections := c.Subscribe(bus.T("panel", "section", "#"))
	linkState := c.Subscribe(bus.T("link", "state"))

	st := types.ServiceState{Level: "up", Status: "running"}
	c.Publish(b.NewMessage(bus.T("panel"), st, false))
	expectKinds(t, everything, "service")
	expectKinds(t, panel, "service")
	expectNoMessage(t, sections)
	expectNoMessage(t, linkState)

	c.Publish(b.NewMessage(bus.T("panel", "section"), st, false))
	expectKinds(t, everything, "service")
	expectKinds(t, panel, "service")
	expectKinds(t, sections, "service")

	c.Publish(b.NewMessage(bus.T("panel", "section", 1), section(1, "idle"), false))
	expectKinds(t, everything, "section")
	expectKinds(t, panel, "section")
	expectKinds(t, sections, "section")

	c.Publish(b.NewMessage(bus.T("link", "state"), st, false))
	expectKinds(t, everything, "service")
	expectKinds(t, linkState, "service")
	expectNoMessage(t, panel)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := bus.NewBus(32)
	c := b.NewConnection("panel")

	c.Publish(b.NewMessage(bus.T("panel", "state"), types.ServiceState{Level: "up", Status: "running"}, true))
	for i, st := range []string{"idle", "owned_by_us", "owned_by_other"} {
		c.Publish(b.NewMessage(bus.T("panel", "section", i), section(i, st), true))
	}

	all := c.Subscribe(bus.T("panel", "#"))
	if got := drainKinds(t, all, 4); countOf(got, "section") != 3 || countOf(got, "service") != 1 {
		t.Fatalf("panel/# retained: %v", got)
	}

	perSection := c.Subscribe(bus.T("panel", "section", "+"))
	got := drainStates(t, perSection, 3)
	assertUnorderedEqual(t, got, []string{"idle", "owned_by_us", "owned_by_other"})

	under := c.Subscribe(bus.T("panel", "+", "#"))
	if got := drainKinds(t, under, 4); countOf(got, "section") != 3 {
		t.Fatalf("panel/+/# retained: %v", got)
	}
}

func TestWildcard_RetainedClear(t *testing.T) {
	b := bus.NewBus(16)
	c := b.NewConnection("panel")

	c.Publish(b.NewMessage(bus.T("panel", "section", 0), section(0, "owned_by_us"), true))
	c.Publish(b.NewMessage(bus.T("panel", "section", 1), section(1, "owned_by_other"), true))

	watch := c.Subscribe(bus.T("panel", "section", "+"))
	drainStates(t, watch, 2)

	c.Publish(b.NewMessage(bus.T("panel", "section", 1), nil, true))
	select {
	case m := <-watch.Channel():
		if m.Payload != nil {
			t.Fatalf("clear delivered as %#v", m.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("clear not delivered to live subscriber")
	}

	late := c.Subscribe(bus.T("panel", "section", "+"))
	got := drainStates(t, late, 1)
	if got[0] != "owned_by_us" {
		t.Fatalf("expected only section 0 after clear, got %v", got)
	}
	expectNoMessage(t, late)
}

// -----------------------------------------------------------------------------
// Queueing and lifecycle
// -----------------------------------------------------------------------------

func TestFullQueueDropsOldest(t *testing.T) {
	b := bus.NewBus(2)
	c := b.NewConnection("link")
	s := c.Subscribe(cbus.TopicTx)

	for speed := byte(10); speed <= 30; speed += 10 {
		c.Publish(b.NewMessage(cbus.TopicTx, cbus.Event{Node: 0x0200, Event: 1, On: true, Data: []byte{speed, 0, 0}}, false))
	}
	for _, want := range []byte{20, 30} {
		m := <-s.Channel()
		if ev := m.Payload.(cbus.Event); ev.Data[0] != want {
			t.Fatalf("speed %d, want %d", ev.Data[0], want)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := bus.NewBus(4)
	c := b.NewConnection("test")
	s := c.Subscribe(bus.T("panel", "section", 3))
	s.Unsubscribe()

	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	// Publishing afterwards must not panic on the closed channel.
	c.Publish(b.NewMessage(bus.T("panel", "section", 3), section(3, "idle"), false))
}

func TestDisconnectClosesAll(t *testing.T) {
	b := bus.NewBus(4)
	c := b.NewConnection("heartbeat")
	s1 := c.Subscribe(bus.T("config", "heartbeat"))
	s2 := c.Subscribe(bus.T("panel", "section", "#"))
	c.Disconnect()

	for _, s := range []*bus.Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatalf("subscription %v still open", s.Topic())
		}
	}
}

func TestAppend(t *testing.T) {
	base := bus.T("panel", "section")
	got := base.Append(2)
	want := bus.Topic{"panel", "section", 2}
	if len(got) != len(want) {
		t.Fatalf("Append = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Append = %v", got)
		}
	}
	if len(base) != 2 {
		t.Fatalf("Append modified receiver: %v", base)
	}
}

func TestTopic_InvalidTokenPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-comparable token, got none")
		}
	}()

	// []byte is not comparable, so T should panic
	_ = bus.T([]byte{1, 2, 3})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func kind(p any) string {
	switch p.(type) {
	case types.SectionState:
		return "section"
	case types.ServiceState:
		return "service"
	case cbus.Event:
		return "event"
	}
	return "other"
}

func expectStates(t *testing.T, sub *bus.Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		st, ok := got.Payload.(types.SectionState)
		if !ok || st.State != want {
			t.Fatalf("unexpected payload: %#v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectKinds(t *testing.T, sub *bus.Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if k := kind(got.Payload); k != want {
			t.Fatalf("got %s payload %#v, want %s", k, got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %s", want)
	}
}

func expectNoMessage(t *testing.T, sub *bus.Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(60 * time.Millisecond):
	}
}

func drain(t *testing.T, sub *bus.Subscription, n int) []*bus.Message {
	t.Helper()
	var out []*bus.Message
	deadline := time.After(300 * time.Millisecond)
	for len(out) < n {
		select {
		case m := <-sub.Channel():
			out = append(out, m)
		case <-deadline:
			t.Fatalf("expected %d messages, got %d", n, len(out))
		}
	}
	return out
}

func drainKinds(t *testing.T, sub *bus.Subscription, n int) []string {
	t.Helper()
	var out []string
	for _, m := range drain(t, sub, n) {
		out = append(out, kind(m.Payload))
	}
	return out
}

func drainStates(t *testing.T, sub *bus.Subscription, n int) []string {
	t.Helper()
	var out []string
	for _, m := range drain(t, sub, n) {
		st, ok := m.Payload.(types.SectionState)
		if !ok {
			t.Fatalf("non-section payload in drain: %#v", m.Payload)
		}
		out = append(out, st.State)
	}
	return out
}

func countOf(got []string, k string) int {
	n := 0
	for _, g := range got {
		if g == k {
			n++
		}
	}
	return n
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
