// Package editor tracks one component instance being edited: the live file
// set, the last saved baseline, debounced persistence into the edit cache
// and periodic auto-save.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"tweakplay/editcache"
	"tweakplay/events"
	"tweakplay/logger"
	"tweakplay/model"
	"tweakplay/scheduler"
)

const (
	DefaultDebounce = 1500 * time.Millisecond
	DefaultAutoSave = 30 * time.Second
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("editor: session closed")

// Status is the save badge state of a session.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
)

// SaveFunc receives the files of an explicit or automatic save.
type SaveFunc func(ctx context.Context, files model.CachedFiles) error

// Options configures a Session. Cache and Scheduler are required.
type Options struct {
	Component string
	Instance  string
	// Initial is the pristine file set that Reset restores.
	Initial   model.CachedFiles
	Cache     *editcache.Cache
	Scheduler scheduler.Scheduler
	// Bus, when set, makes the session snapshot itself before theme and
	// component changes.
	Bus *events.Bus
	// OnSave enables auto-save. It may be nil.
	OnSave   SaveFunc
	Debounce time.Duration
	AutoSave time.Duration
	Log      *logger.Logger
}

// Session is safe for concurrent use.
type Session struct {
	component string
	instance  string
	cache     *editcache.Cache
	sched     scheduler.Scheduler
	bus       *events.Bus
	onSave    SaveFunc
	debounce  time.Duration
	autoSave  time.Duration
	log       *logger.Logger

	mu            sync.Mutex
	initial       model.CachedFiles
	current       model.CachedFiles
	lastSaved     model.CachedFiles
	lastPersisted string
	status        Status
	pending       scheduler.Task
	autoTask      scheduler.Task
	unsubscribe   func()
	closed        bool
	// generation advances on Reset and Close; a save that straddles either
	// is discarded.
	generation uint64
}

// Open starts a session. The baseline comes from the cache when an entry
// exists; otherwise the initial files become the baseline and are cached.
func Open(opts Options) *Session {
	instance := opts.Instance
	if instance == "" {
		instance = editcache.DefaultInstance
	}
	s := &Session{
		component: opts.Component,
		instance:  instance,
		cache:     opts.Cache,
		sched:     opts.Scheduler,
		bus:       opts.Bus,
		onSave:    opts.OnSave,
		debounce:  opts.Debounce,
		autoSave:  opts.AutoSave,
		log: opts.Log.WithFields(map[string]any{
			"component": "editor",
			"target":    opts.Component + "/" + instance,
		}),
		initial: opts.Initial.Clone(),
		status:  StatusSaved,
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if s.autoSave <= 0 {
		s.autoSave = DefaultAutoSave
	}
	if s.initial == nil {
		s.initial = model.CachedFiles{}
	}

	if cached, ok := s.cache.Get(s.component, s.instance); ok && len(cached) > 0 {
		s.lastSaved = cached
	} else {
		s.lastSaved = s.initial.Clone()
		if len(s.lastSaved) > 0 {
			s.cache.Set(s.component, s.instance, s.lastSaved)
		}
	}
	s.current = s.lastSaved.Clone()
	s.lastPersisted = s.current.Fingerprint()

	if s.bus != nil {
		s.unsubscribe = s.bus.Subscribe(func(events.Event) {
			s.Snapshot()
		}, events.BeforeThemeChange, events.BeforeComponentChange)
	}
	return s
}

// Component returns the component id of the session.
func (s *Session) Component() string { return s.component }

// Instance returns the instance id of the session.
func (s *Session) Instance() string { return s.instance }

// Files returns a copy of the live file set.
func (s *Session) Files() model.CachedFiles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// LastSaved returns a copy of the saved baseline.
func (s *Session) LastSaved() model.CachedFiles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved.Clone()
}

// Status returns the save badge state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HasChanges reports whether the live files differ from the baseline.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty()
}

func (s *Session) dirty() bool {
	return s.current.Changed(s.lastSaved)
}

// Edit replaces the content of one file.
func (s *Session) Edit(path, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	f := s.current[path]
	f.Code = code
	s.current[path] = f
	s.changedLocked()
	return nil
}

// Replace swaps the whole live file set.
func (s *Session) Replace(files model.CachedFiles) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.current = files.Clone()
	if s.current == nil {
		s.current = model.CachedFiles{}
	}
	s.changedLocked()
	return nil
}

// changedLocked restarts the debounce window and syncs auto-save.
func (s *Session) changedLocked() {
	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = s.sched.AfterFunc(s.debounce, s.flush)
	s.syncAutoSaveLocked()
}

// flush persists the live files once the debounce window has passed.
func (s *Session) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	fp := s.current.Fingerprint()
	if fp == s.lastPersisted {
		return
	}
	s.lastPersisted = fp
	if s.status == StatusSaving {
		return
	}
	if fp != s.lastSaved.Fingerprint() {
		s.status = StatusUnsaved
	}
	s.cache.Set(s.component, s.instance, s.current)
	s.log.Debug("persisted edits")
}

func (s *Session) syncAutoSaveLocked() {
	want := !s.closed && s.onSave != nil && s.dirty()
	switch {
	case want && s.autoTask == nil:
		s.autoTask = s.sched.Every(s.autoSave, s.autoSaveTick)
	case !want && s.autoTask != nil:
		s.autoTask.Stop()
		s.autoTask = nil
	}
}

func (s *Session) autoSaveTick() {
	s.mu.Lock()
	skip := s.closed || s.status == StatusSaving || !s.dirty()
	s.mu.Unlock()
	if skip {
		return
	}
	if err := s.Save(context.Background()); err != nil {
		s.log.Error(err, "auto-save failed")
	}
}

// Save hands the live files to the save hook and makes them the new
// baseline. A save already in flight makes this a no-op.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.status == StatusSaving {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusSaving
	files := s.current.Clone()
	hook := s.onSave
	generation := s.generation
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, files); err != nil {
			s.mu.Lock()
			if s.generation == generation {
				s.status = StatusUnsaved
			}
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.generation != generation {
		s.mu.Unlock()
		s.log.Debug("save superseded by reset")
		return nil
	}
	s.lastSaved = files
	s.cache.Set(s.component, s.instance, files)
	s.lastPersisted = files.Fingerprint()
	s.status = StatusSaved
	if s.dirty() {
		s.status = StatusUnsaved
	}
	s.syncAutoSaveLocked()
	s.mu.Unlock()

	s.log.Debug("saved")
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.SessionSaved, Component: s.component, Instance: s.instance})
	}
	return nil
}

// Snapshot makes the live files the baseline and writes them to the cache
// immediately, dropping any pending debounce.
func (s *Session) Snapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.lastSaved = s.current.Clone()
	s.cache.Set(s.component, s.instance, s.lastSaved)
	s.lastPersisted = s.lastSaved.Fingerprint()
	s.status = StatusSaved
	s.syncAutoSaveLocked()
}

// Reset drops the cached entry and restores the initial files.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.generation++
	s.cache.Clear(s.component, s.instance)
	s.current = s.initial.Clone()
	s.lastSaved = s.initial.Clone()
	s.lastPersisted = s.current.Fingerprint()
	s.status = StatusSaved
	s.syncAutoSaveLocked()
	s.log.Info("reset to initial files")
}

// Close cancels pending timers without writing and detaches from the bus.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.autoTask != nil {
		s.autoTask.Stop()
		s.autoTask = nil
	}
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
