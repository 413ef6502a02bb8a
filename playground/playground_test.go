package playground

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tweakplay/catalog"
	"tweakplay/editcache"
	"tweakplay/events"
	"tweakplay/logger"
	"tweakplay/model"
	"tweakplay/sandbox"
	"tweakplay/scheduler"
	"tweakplay/storage"
	"tweakplay/theme"
)

type recorder struct {
	kinds []events.Kind
}

func newPlayground(t *testing.T) (*Playground, *recorder) {
	t.Helper()
	themes, err := theme.Builtin(logger.Nop())
	require.NoError(t, err)
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	clock := scheduler.NewVirtual(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	p := New(Options{
		Themes:    themes,
		Catalog:   cat,
		Cache:     editcache.New(storage.NewMemory(), editcache.Options{ReadTTL: -1, Clock: clock.Now, Log: logger.Nop()}),
		Scheduler: clock,
		Log:       logger.Nop(),
	})
	t.Cleanup(p.Close)

	rec := &recorder{}
	p.Bus().Subscribe(func(e events.Event) { rec.kinds = append(rec.kinds, e.Kind) })
	return p, rec
}

func TestNewStartsOnDefaultTheme(t *testing.T) {
	p, _ := newPlayground(t)
	st := p.State()
	require.Equal(t, theme.DefaultTheme, st.Theme)
	require.Equal(t, p.Themes().CSS(theme.DefaultTheme), st.CSS)
	require.False(t, st.Dark)
	require.Empty(t, st.Component)
}

func TestSetTheme(t *testing.T) {
	p, rec := newPlayground(t)

	require.Equal(t, "ocean", p.SetTheme("ocean"))
	st := p.State()
	require.Equal(t, "ocean", st.Theme)
	require.Equal(t, p.Themes().CSS("ocean"), st.CSS)
	require.Equal(t, []events.Kind{events.BeforeThemeChange, events.ThemeChanged}, rec.kinds)

	require.Equal(t, theme.DefaultTheme, p.SetTheme("does-not-exist"))
	require.Equal(t, p.Themes().CSS(theme.DefaultTheme), p.State().CSS)
}

func TestSetCustomCSS(t *testing.T) {
	p, _ := newPlayground(t)

	require.Equal(t, "forest", p.SetCustomCSS(p.Themes().CSS("forest")))

	css := ":root {\n  --primary: #123456;\n}\n.dark {\n  --primary: #abcdef;\n}\n"
	require.Equal(t, theme.CustomTheme, p.SetCustomCSS(css))
	st := p.State()
	require.Equal(t, css, st.CSS)
	v, ok := st.Variables.Light.Get("primary")
	require.True(t, ok)
	require.Equal(t, "#123456", v)
	v, _ = st.Variables.Dark.Get("primary")
	require.Equal(t, "#abcdef", v)
}

func TestUpdateVariableRoundTrip(t *testing.T) {
	p, rec := newPlayground(t)
	style, ok := p.Themes().Get(theme.DefaultTheme)
	require.True(t, ok)
	original, ok := style.CSSVars.Light.Get("primary")
	require.True(t, ok)

	got, err := p.UpdateVariable(theme.ScopeLight, "primary", "#ff0000")
	require.NoError(t, err)
	require.Equal(t, theme.DefaultTheme, got)
	require.Contains(t, p.State().CSS, "--primary: #ff0000;")
	require.Equal(t, []events.Kind{events.BeforeThemeChange, events.ThemeChanged}, rec.kinds)

	got, err = p.UpdateVariable(theme.ScopeLight, "primary", original)
	require.NoError(t, err)
	require.Equal(t, theme.DefaultTheme, got)
	require.Equal(t, p.Themes().CSS(theme.DefaultTheme), p.State().CSS)

	_, err = p.UpdateVariable("sepia", "primary", "#000")
	require.Error(t, err)
	_, err = p.UpdateVariable(theme.ScopeDark, "", "#000")
	require.Error(t, err)
	require.Len(t, rec.kinds, 4)
}

func TestUpdateVariableBelowMatchThreshold(t *testing.T) {
	p, _ := newPlayground(t)

	var (
		got string
		err error
	)
	for _, key := range []string{"background", "foreground", "primary", "secondary", "accent", "border"} {
		got, err = p.UpdateVariable(theme.ScopeDark, key, "#123456")
		require.NoError(t, err)
	}
	require.Equal(t, theme.CustomTheme, got)
	require.Equal(t, theme.CustomTheme, p.State().Theme)
	v, _ := p.State().Variables.Dark.Get("border")
	require.Equal(t, "#123456", v)
}

func TestSetDark(t *testing.T) {
	p, rec := newPlayground(t)

	p.SetDark(false)
	require.Empty(t, rec.kinds)

	p.SetDark(true)
	require.True(t, p.Dark())
	require.Equal(t, []events.Kind{events.BeforeThemeChange, events.DarkModeChanged}, rec.kinds)

	proj, err := p.Files("button", "")
	require.NoError(t, err)
	require.Contains(t, proj.Files[sandbox.IndexHTMLPath].Code, `class="dark"`)
}

func TestSwitchComponent(t *testing.T) {
	p, rec := newPlayground(t)

	require.ErrorIs(t, p.SwitchComponent("nope"), catalog.ErrNotFound)
	require.Empty(t, rec.kinds)

	require.NoError(t, p.SwitchComponent("card"))
	require.Equal(t, "card", p.State().Component)
	require.Equal(t, []events.Kind{events.BeforeComponentChange, events.ComponentChanged}, rec.kinds)
}

func TestThemeChangeSnapshotsOpenSessions(t *testing.T) {
	p, _ := newPlayground(t)
	s, err := p.OpenSession("button", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Edit(sandbox.AppPath, "edited"))
	require.True(t, s.HasChanges())

	p.SetTheme("rose")
	require.False(t, s.HasChanges())
	cached, ok := p.Cache().Get("button", "")
	require.True(t, ok)
	require.Equal(t, "edited", cached[sandbox.AppPath].Code)
}

func TestOpenSession(t *testing.T) {
	p, _ := newPlayground(t)

	a, err := p.OpenSession("button", "", nil)
	require.NoError(t, err)
	b, err := p.OpenSession("button", editcache.DefaultInstance, nil)
	require.NoError(t, err)
	require.Same(t, a, b)

	sizes, err := p.OpenSession("button", "sizes", nil)
	require.NoError(t, err)
	require.Contains(t, sizes.Files()[sandbox.AppPath].Code, `size="lg"`)

	scratch, err := p.OpenSession("button", "scratch", nil)
	require.NoError(t, err)
	require.Equal(t, a.Files()[sandbox.AppPath], scratch.Files()[sandbox.AppPath])

	card, err := p.OpenSession("card", "", nil)
	require.NoError(t, err)
	require.Contains(t, card.Files(), "/src/components/ui/button.tsx")

	_, err = p.OpenSession("nope", "", nil)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.Equal(t, []string{"button/default", "button/scratch", "button/sizes", "card/default"}, p.Sessions())
	p.CloseSession("button", "scratch")
	_, ok := p.Session("button", "scratch")
	require.False(t, ok)
}

func TestFilesPrefersLiveSession(t *testing.T) {
	p, _ := newPlayground(t)

	require.NoError(t, p.Store("badge", "", model.CachedFiles{sandbox.AppPath: {Code: "from cache"}}))
	proj, err := p.Files("badge", "")
	require.NoError(t, err)
	require.Equal(t, "from cache", proj.Files[sandbox.AppPath].Code)
	require.Equal(t, p.State().CSS, mustExtract(t, proj))

	s, err := p.OpenSession("badge", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Edit(sandbox.AppPath, "live"))

	proj, err = p.Files("badge", "")
	require.NoError(t, err)
	require.Equal(t, "live", proj.Files[sandbox.AppPath].Code)

	require.NoError(t, p.Store("badge", "", model.CachedFiles{sandbox.AppPath: {Code: "replaced"}}))
	require.Equal(t, "replaced", s.Files()[sandbox.AppPath].Code)

	require.ErrorIs(t, p.Store("nope", "", nil), catalog.ErrNotFound)
}

func TestResetAndClearCache(t *testing.T) {
	p, rec := newPlayground(t)

	require.NoError(t, p.Store("badge", "", model.CachedFiles{sandbox.AppPath: {Code: "x"}}))
	p.Reset("badge", "")
	_, ok := p.Cache().Get("badge", "")
	require.False(t, ok)

	s, err := p.OpenSession("button", "", nil)
	require.NoError(t, err)
	initial := s.Files()
	require.NoError(t, s.Edit(sandbox.AppPath, "changed"))
	require.NoError(t, p.Store("card", "", model.CachedFiles{sandbox.AppPath: {Code: "y"}}))

	require.Equal(t, 2, p.ClearCache())
	require.Equal(t, initial, s.Files())
	require.Contains(t, rec.kinds, events.CacheCleared)
	_, ok = p.Cache().Get("card", "")
	require.False(t, ok)
}

func mustExtract(t *testing.T, proj sandbox.Project) string {
	t.Helper()
	css, ok := sandbox.ExtractThemeCSS(proj.Files[sandbox.IndexHTMLPath].Code)
	require.True(t, ok)
	return css
}
