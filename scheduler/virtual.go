package scheduler

import (
	"sync"
	"time"
)

// Virtual is a manually driven clock. Callbacks run synchronously inside
// Advance, in due order, with ties broken by creation order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks map[int]*virtualTask
}

type virtualTask struct {
	v     *Virtual
	id    int
	due   time.Time
	every time.Duration
	fn    func()
}

// NewVirtual returns a clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, tasks: make(map[int]*virtualTask)}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Task {
	return v.add(d, 0, fn)
}

func (v *Virtual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		return &virtualTask{v: v, id: -1}
	}
	return v.add(d, d, fn)
}

func (v *Virtual) add(d, every time.Duration, fn func()) *virtualTask {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTask{v: v, id: v.seq, due: v.now.Add(d), every: every, fn: fn}
	v.tasks[t.id] = t
	return t
}

func (t *virtualTask) Stop() bool {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	if _, ok := t.v.tasks[t.id]; !ok {
		return false
	}
	delete(t.v.tasks, t.id)
	return true
}

// Pending reports how many tasks are scheduled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.nextDue(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = next.due
		if next.every > 0 {
			next.due = next.due.Add(next.every)
		} else {
			delete(v.tasks, next.id)
		}
		fn := next.fn
		v.mu.Unlock()

		fn()
	}
}

func (v *Virtual) nextDue(limit time.Time) *virtualTask {
	var best *virtualTask
	for _, t := range v.tasks {
		if t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}
