package panel

import (
	"container/heap"
	"time"
)

// schedule is a heap of next-due times. It is owned by the service loop
// and not safe for concurrent use.
type schedule struct {
	h     taskHeap
	tasks map[string]*task
}

type task struct {
	name  string
	every time.Duration // 0 for one-shot
	due   time.Time
	run   func(now time.Time)
	index int
}

type taskHeap []*task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].due.Before(h[j].due) }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *taskHeap) Push(x any)        { it := x.(*task); it.index = len(*h); *h = append(*h, it) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	it.index = -1
	*h = old[:n-1]
	return it
}

func newSchedule() *schedule {
	return &schedule{tasks: make(map[string]*task)}
}

// Every runs fn every interval, first at now+every. An existing task with
// the same name is replaced.
func (s *schedule) Every(name string, every time.Duration, now time.Time, fn func(time.Time)) {
	if every <= 0 {
		return
	}
	s.upsert(name, every, now.Add(every), fn)
}

// After runs fn once at now+d.
func (s *schedule) After(name string, d time.Duration, now time.Time, fn func(time.Time)) {
	s.upsert(name, 0, now.Add(d), fn)
}

func (s *schedule) upsert(name string, every time.Duration, due time.Time, fn func(time.Time)) {
	if it := s.tasks[name]; it != nil {
		it.every, it.due, it.run = every, due, fn
		heap.Fix(&s.h, it.index)
		return
	}
	it := &task{name: name, every: every, due: due, run: fn, index: -1}
	s.tasks[name] = it
	heap.Push(&s.h, it)
}

// Stop removes a task; unknown names are ignored.
func (s *schedule) Stop(name string) {
	if it := s.tasks[name]; it != nil {
		heap.Remove(&s.h, it.index)
		delete(s.tasks, name)
	}
}

// Clear removes every task.
func (s *schedule) Clear() {
	s.h = s.h[:0]
	s.tasks = make(map[string]*task)
}

// Wait returns the time until the next task is due; ok is false when
// nothing is scheduled.
func (s *schedule) Wait(now time.Time) (d time.Duration, ok bool) {
	if len(s.h) == 0 {
		return 0, false
	}
	if d = s.h[0].due.Sub(now); d < 0 {
		d = 0
	}
	return d, true
}

// RunDue runs every task due at now and re-arms periodic ones at
// now+every. It returns the number of tasks run.
func (s *schedule) RunDue(now time.Time) int {
	n := 0
	for len(s.h) > 0 && !s.h[0].due.After(now) {
		it := s.h[0]
		if it.every > 0 {
			it.due = now.Add(it.every)
			heap.Fix(&s.h, 0)
		} else {
			heap.Pop(&s.h)
			delete(s.tasks, it.name)
		}
		it.run(now)
		n++
	}
	return n
}
