// Package playground coordinates the shared state of the component
// playground: the active theme and its CSS, the effective dark mode flag,
// the selected component and the open edit sessions.
package playground

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tweakplay/catalog"
	"tweakplay/editcache"
	"tweakplay/editor"
	"tweakplay/events"
	"tweakplay/logger"
	"tweakplay/model"
	"tweakplay/sandbox"
	"tweakplay/scheduler"
	"tweakplay/theme"
)

// Options configures a Playground. Themes, Catalog, Cache and Scheduler are
// required.
type Options struct {
	Themes       *theme.Registry
	Catalog      *catalog.Catalog
	Cache        *editcache.Cache
	Scheduler    scheduler.Scheduler
	Bus          *events.Bus
	DefaultTheme string
	Dark         bool
	Debounce     time.Duration
	AutoSave     time.Duration
	Log          *logger.Logger
}

// State is a snapshot of the playground.
type State struct {
	Theme     string            `json:"theme"`
	CSS       string            `json:"css"`
	Variables theme.VariableSet `json:"variables"`
	Dark      bool              `json:"dark"`
	Component string            `json:"component,omitempty"`
}

type sessionKey struct {
	component string
	instance  string
}

// Playground is safe for concurrent use. Events are published without any
// lock held so subscribers may call back into it.
type Playground struct {
	themes   *theme.Registry
	catalog  *catalog.Catalog
	cache    *editcache.Cache
	sched    scheduler.Scheduler
	bus      *events.Bus
	debounce time.Duration
	autoSave time.Duration
	rootLog  *logger.Logger
	log      *logger.Logger

	mu       sync.RWMutex
	state    State
	sessions map[sessionKey]*editor.Session
}

// New returns a playground showing opts.DefaultTheme, or the registry
// default when empty.
func New(opts Options) *Playground {
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(opts.Scheduler.Now)
	}
	p := &Playground{
		themes:   opts.Themes,
		catalog:  opts.Catalog,
		cache:    opts.Cache,
		sched:    opts.Scheduler,
		bus:      bus,
		debounce: opts.Debounce,
		autoSave: opts.AutoSave,
		rootLog:  opts.Log,
		log:      opts.Log.With("component", "playground"),
		sessions: make(map[sessionKey]*editor.Session),
	}

	name := opts.DefaultTheme
	if name == "" {
		name = theme.DefaultTheme
	}
	resolved, vars := p.themes.Resolve(name)
	p.state = State{
		Theme:     resolved,
		CSS:       theme.Generate(vars),
		Variables: vars,
		Dark:      opts.Dark,
	}
	return p
}

// Bus returns the event bus of the playground.
func (p *Playground) Bus() *events.Bus { return p.bus }

// Themes returns the style registry.
func (p *Playground) Themes() *theme.Registry { return p.themes }

// Catalog returns the component catalog.
func (p *Playground) Catalog() *catalog.Catalog { return p.catalog }

// Cache returns the edit cache.
func (p *Playground) Cache() *editcache.Cache { return p.cache }

// State returns the current state.
func (p *Playground) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.state
	s.Variables = s.Variables.Clone()
	return s
}

// Dark reports the effective dark mode.
func (p *Playground) Dark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Dark
}

// SetTheme selects a registered theme. Unknown names fall back to the
// default theme, whose name is returned.
func (p *Playground) SetTheme(name string) string {
	p.bus.Publish(events.Event{Kind: events.BeforeThemeChange, Theme: name})

	resolved, vars := p.themes.Resolve(name)
	p.setTheme(resolved, theme.Generate(vars), vars)
	return resolved
}

// SetCustomCSS installs hand-written CSS. The theme name is detected from
// it and its variables are parsed back out.
func (p *Playground) SetCustomCSS(css string) string {
	detected := p.themes.Detect(css)
	p.bus.Publish(events.Event{Kind: events.BeforeThemeChange, Theme: detected})

	p.setTheme(detected, css, theme.ParseVariables(css))
	return detected
}

// UpdateVariable assigns one variable, regenerates the CSS and re-detects
// the theme name. Editing a theme back to its registered values restores
// its name.
func (p *Playground) UpdateVariable(scope theme.Scope, key, value string) (string, error) {
	if key == "" {
		return "", errors.New("playground: empty variable name")
	}
	if !scope.Valid() {
		return "", fmt.Errorf("playground: unknown variable scope %q", scope)
	}
	p.bus.Publish(events.Event{Kind: events.BeforeThemeChange})

	p.mu.Lock()
	vars, err := p.state.Variables.With(scope, key, value)
	if err != nil {
		p.mu.Unlock()
		return "", fmt.Errorf("playground: %w", err)
	}
	css := theme.Generate(vars)
	detected := p.themes.Detect(css)
	p.state.Theme = detected
	p.state.CSS = css
	p.state.Variables = vars
	p.mu.Unlock()

	p.bus.Publish(events.Event{Kind: events.ThemeChanged, Theme: detected})
	return detected, nil
}

func (p *Playground) setTheme(name, css string, vars theme.VariableSet) {
	p.mu.Lock()
	p.state.Theme = name
	p.state.CSS = css
	p.state.Variables = vars
	p.mu.Unlock()

	p.log.With("theme", name).Debug("theme changed")
	p.bus.Publish(events.Event{Kind: events.ThemeChanged, Theme: name})
}

// SetDark changes the effective dark mode. Setting the current value is a
// no-op.
func (p *Playground) SetDark(dark bool) {
	if p.Dark() == dark {
		return
	}
	p.bus.Publish(events.Event{Kind: events.BeforeThemeChange, Dark: dark})

	p.mu.Lock()
	p.state.Dark = dark
	p.mu.Unlock()

	p.bus.Publish(events.Event{Kind: events.DarkModeChanged, Dark: dark})
}

// SwitchComponent selects the component being previewed.
func (p *Playground) SwitchComponent(id string) error {
	if _, err := p.catalog.Get(id); err != nil {
		return err
	}
	p.bus.Publish(events.Event{Kind: events.BeforeComponentChange, Component: id})

	p.mu.Lock()
	p.state.Component = id
	p.mu.Unlock()

	p.bus.Publish(events.Event{Kind: events.ComponentChanged, Component: id})
	return nil
}

// OpenSession returns the edit session of a component instance, opening it
// on first use. The instance names an example of the component; unknown
// instances start from the first example. onSave may be nil.
func (p *Playground) OpenSession(component, instance string, onSave editor.SaveFunc) (*editor.Session, error) {
	if instance == "" {
		instance = editcache.DefaultInstance
	}
	key := sessionKey{component, instance}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[key]; ok {
		return s, nil
	}

	in, err := p.input(component, instance)
	if err != nil {
		return nil, err
	}
	s := editor.Open(editor.Options{
		Component: component,
		Instance:  instance,
		Initial:   sandbox.Editable(in),
		Cache:     p.cache,
		Scheduler: p.sched,
		Bus:       p.bus,
		OnSave:    onSave,
		Debounce:  p.debounce,
		AutoSave:  p.autoSave,
		Log:       p.rootLog,
	})
	p.sessions[key] = s
	p.log.WithFields(map[string]any{"target": component + "/" + instance}).Debug("opened session")
	return s, nil
}

// Session returns an already open session.
func (p *Playground) Session(component, instance string) (*editor.Session, bool) {
	if instance == "" {
		instance = editcache.DefaultInstance
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[sessionKey{component, instance}]
	return s, ok
}

// Sessions lists open sessions as "component/instance", sorted.
func (p *Playground) Sessions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.sessions))
	for k := range p.sessions {
		out = append(out, k.component+"/"+k.instance)
	}
	sort.Strings(out)
	return out
}

// CloseSession closes and forgets a session. Pending debounced writes are
// dropped.
func (p *Playground) CloseSession(component, instance string) {
	if instance == "" {
		instance = editcache.DefaultInstance
	}
	key := sessionKey{component, instance}
	p.mu.Lock()
	s, ok := p.sessions[key]
	delete(p.sessions, key)
	p.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Files builds the preview project of a component instance from the live
// session when one is open, otherwise from the cache.
func (p *Playground) Files(component, instance string) (sandbox.Project, error) {
	if instance == "" {
		instance = editcache.DefaultInstance
	}
	p.mu.RLock()
	in, err := p.input(component, instance)
	s, open := p.sessions[sessionKey{component, instance}]
	p.mu.RUnlock()
	if err != nil {
		return sandbox.Project{}, err
	}

	if open {
		in.Overrides = s.Files()
	} else if cached, ok := p.cache.Get(component, instance); ok {
		in.Overrides = cached
	}
	return sandbox.Build(in), nil
}

// Store writes files for a component instance: into the live session when
// open, otherwise straight into the cache.
func (p *Playground) Store(component, instance string, files model.CachedFiles) error {
	if _, err := p.catalog.Get(component); err != nil {
		return err
	}
	if s, ok := p.Session(component, instance); ok {
		return s.Replace(files)
	}
	p.cache.Set(component, instance, files)
	return nil
}

// Reset discards the edits of a component instance.
func (p *Playground) Reset(component, instance string) {
	if s, ok := p.Session(component, instance); ok {
		s.Reset()
		return
	}
	p.cache.Clear(component, instance)
}

// ClearCache drops every cached edit and resets open sessions.
func (p *Playground) ClearCache() int {
	n := p.cache.ClearAll()

	p.mu.RLock()
	open := make([]*editor.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		open = append(open, s)
	}
	p.mu.RUnlock()
	for _, s := range open {
		s.Reset()
	}

	p.log.WithFields(map[string]any{"entries": n}).Info("cleared edit cache")
	p.bus.Publish(events.Event{Kind: events.CacheCleared})
	return n
}

// Close closes every open session.
func (p *Playground) Close() {
	p.mu.Lock()
	open := p.sessions
	p.sessions = make(map[sessionKey]*editor.Session)
	p.mu.Unlock()
	for _, s := range open {
		s.Close()
	}
}

// input gathers everything but the cached overrides. Callers hold p.mu.
func (p *Playground) input(component, instance string) (sandbox.Input, error) {
	comp, err := p.catalog.Get(component)
	if err != nil {
		return sandbox.Input{}, err
	}
	ex, err := p.catalog.Example(component, instance)
	if errors.Is(err, catalog.ErrNotFound) {
		ex, err = p.catalog.Example(component, "")
	}
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return sandbox.Input{}, err
	}
	code, err := p.catalog.Source(component)
	if err != nil {
		return sandbox.Input{}, err
	}
	registry, err := p.catalog.RegistrySources(component)
	if err != nil {
		return sandbox.Input{}, err
	}
	return sandbox.Input{
		Component:     component,
		ComponentCode: code,
		PreviewCode:   ex.Code,
		Registry:      registry,
		Dependencies:  comp.Dependencies,
		ThemeCSS:      p.state.CSS,
		Dark:          p.state.Dark,
	}, nil
}
