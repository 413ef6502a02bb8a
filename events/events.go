// Package events is the playground's publish/subscribe channel. Delivery is
// synchronous and follows subscription order, so a "before" event has been
// handled by every subscriber when Publish returns.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names an event.
type Kind string

const (
	BeforeThemeChange     Kind = "before-theme-change"
	BeforeComponentChange Kind = "before-component-change"
	ThemeChanged          Kind = "theme-changed"
	DarkModeChanged       Kind = "dark-mode-changed"
	ComponentChanged      Kind = "component-changed"
	SessionSaved          Kind = "session-saved"
	CacheCleared          Kind = "cache-cleared"
)

// Event is delivered to subscribers. Only the fields relevant to Kind are
// set.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	At        time.Time `json:"at"`
	Theme     string    `json:"theme,omitempty"`
	Dark      bool      `json:"dark,omitempty"`
	Component string    `json:"component,omitempty"`
	Instance  string    `json:"instance,omitempty"`
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id    int
	kinds map[Kind]struct{}
	fn    Handler
}

// Bus fans events out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	seq  int
	subs []subscription
	now  func() time.Time
}

// NewBus returns an empty bus stamping events with now, or time.Now when nil.
func NewBus(now func() time.Time) *Bus {
	if now == nil {
		now = time.Now
	}
	return &Bus{now: now}
}

// Subscribe registers fn for the given kinds, or for every kind when none
// are given. The returned function unsubscribes and is safe to call twice.
func (b *Bus) Subscribe(fn Handler, kinds ...Kind) func() {
	sub := subscription{fn: fn}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.seq++
	sub.id = b.seq
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish stamps ev with an id and time and delivers it. Handlers run on the
// caller's goroutine and may publish or subscribe themselves.
func (b *Bus) Publish(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = b.now()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.kinds != nil {
			if _, ok := s.kinds[ev.Kind]; !ok {
				continue
			}
		}
		s.fn(ev)
	}
	return ev
}

// Len reports the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
