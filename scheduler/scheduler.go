// Package scheduler runs cancellable delayed and repeating tasks. Real uses
// the wall clock; Virtual only moves when a test advances it.
package scheduler

import (
	"sync"
	"time"

	"tweakplay/logger"
)

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels the task. It reports whether the task was still pending;
	// a callback already running is not interrupted.
	Stop() bool
}

// Scheduler creates tasks.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Task
	// Every runs fn every d until stopped.
	Every(d time.Duration, fn func()) Task
	Now() time.Time
}

// Real schedules on the wall clock. Callbacks run on their own goroutines.
type Real struct {
	log *logger.Logger
}

// NewReal returns a wall-clock scheduler.
func NewReal(log *logger.Logger) *Real {
	return &Real{log: log.With("component", "scheduler")}
}

func (r *Real) Now() time.Time { return time.Now() }

func (r *Real) AfterFunc(d time.Duration, fn func()) Task {
	return &timerTask{t: time.AfterFunc(d, fn)}
}

func (r *Real) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	if d <= 0 {
		t.stopped = true
		return t
	}

	go func() {
		r.log.With("every", d.String()).Debug("repeating task started")
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-t.done:
				r.log.Debug("repeating task stopped")
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

type timerTask struct {
	t *time.Timer
}

func (t *timerTask) Stop() bool { return t.t.Stop() }

type tickerTask struct {
	once    sync.Once
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func (t *tickerTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.once.Do(func() { close(t.done) })
	return true
}
