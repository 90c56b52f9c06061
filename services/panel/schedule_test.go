package panel

import (
	"testing"
	"time"
)

func TestScheduleOrderAndCadence(t *testing.T) {
	s := newSchedule()
	t0 := time.Unix(0, 0)
	var ran []string
	rec := func(name string) func(time.Time) { return func(time.Time) { ran = append(ran, name) } }

	s.Every("switches", 2*time.Millisecond, t0, rec("switches"))
	s.Every("pot", 19*time.Millisecond, t0, rec("pot"))

	if d, ok := s.Wait(t0); !ok || d != 2*time.Millisecond {
		t.Fatalf("Wait = %v %v", d, ok)
	}
	counts := map[string]int{}
	for now := t0; now.Before(t0.Add(40 * time.Millisecond)); now = now.Add(time.Millisecond) {
		ran = ran[:0]
		s.RunDue(now)
		for _, n := range ran {
			counts[n]++
		}
	}
	if counts["switches"] != 19 {
		t.Fatalf("switches ran %d times in 40ms", counts["switches"])
	}
	if counts["pot"] != 2 {
		t.Fatalf("pot ran %d times in 40ms", counts["pot"])
	}
}

func TestScheduleOneShot(t *testing.T) {
	s := newSchedule()
	t0 := time.Unix(0, 0)
	fired := 0
	s.After("start", 5*time.Millisecond, t0, func(time.Time) { fired++ })

	if s.RunDue(t0.Add(4*time.Millisecond)) != 0 {
		t.Fatal("one-shot fired early")
	}
	s.RunDue(t0.Add(5 * time.Millisecond))
	s.RunDue(t0.Add(50 * time.Millisecond))
	if fired != 1 {
		t.Fatalf("one-shot fired %d times", fired)
	}
	if _, ok := s.Wait(t0); ok {
		t.Fatal("schedule not empty after one-shot")
	}
}

func TestScheduleStopReplaceClear(t *testing.T) {
	s := newSchedule()
	t0 := time.Unix(0, 0)
	hits := map[string]int{}
	s.Every("a", time.Millisecond, t0, func(time.Time) { hits["a"]++ })
	s.Every("a", 10*time.Millisecond, t0, func(time.Time) { hits["a2"]++ })
	s.Every("b", time.Millisecond, t0, func(time.Time) { hits["b"]++ })
	s.Stop("b")
	s.Stop("missing")

	s.RunDue(t0.Add(10 * time.Millisecond))
	if hits["a"] != 0 || hits["a2"] != 1 || hits["b"] != 0 {
		t.Fatalf("hits %v", hits)
	}

	// A task may schedule another from inside its run.
	s.After("chain", 0, t0, func(now time.Time) {
		s.After("next", time.Millisecond, now, func(time.Time) { hits["next"]++ })
	})
	s.RunDue(t0.Add(20 * time.Millisecond))
	s.RunDue(t0.Add(21 * time.Millisecond))
	if hits["next"] != 1 {
		t.Fatalf("chained task hits %d", hits["next"])
	}

	s.Clear()
	if _, ok := s.Wait(t0); ok {
		t.Fatal("Clear left tasks")
	}
}
