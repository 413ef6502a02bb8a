package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	list := c.List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		require.True(t, prev.Category < cur.Category || (prev.Category == cur.Category && prev.Name <= cur.Name))
	}

	for _, comp := range list {
		src, err := c.Source(comp.ID)
		require.NoError(t, err)
		require.NotEmpty(t, src, comp.ID)
		require.NotEmpty(t, comp.Examples, comp.ID)
		for _, ex := range comp.Examples {
			require.Contains(t, ex.Code, "export default function App()", comp.ID+"/"+ex.ID)
		}
	}
}

func TestGetAndExample(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	btn, err := c.Get("button")
	require.NoError(t, err)
	require.Equal(t, "Button", btn.Name)
	require.Contains(t, btn.Dependencies, "class-variance-authority")

	first, err := c.Example("button", "")
	require.NoError(t, err)
	require.Equal(t, "default", first.ID)

	sizes, err := c.Example("button", "sizes")
	require.NoError(t, err)
	require.Contains(t, sizes.Code, `size="lg"`)

	_, err = c.Example("button", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Source("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrySources(t *testing.T) {
	index := []byte(`
items:
  - id: a
    registryDependencies: [b]
  - id: b
    dependencies: {left-pad: "1.0.0"}
    registryDependencies: [c, a]
  - id: c
`)
	sources := fstest.MapFS{
		"a.tsx": {Data: []byte("A")},
		"b.tsx": {Data: []byte("B")},
		"c.tsx": {Data: []byte("C")},
	}
	c, err := New(index, sources)
	require.NoError(t, err)

	got, err := c.RegistrySources("a")
	require.NoError(t, err)
	require.Equal(t, map[string]RegistrySource{
		"b": {Code: "B", Dependencies: map[string]string{"left-pad": "1.0.0"}},
		"c": {Code: "C"},
	}, got)

	none, err := c.RegistrySources("c")
	require.NoError(t, err)
	require.Empty(t, none)

	comp, err := c.Get("a")
	require.NoError(t, err)
	require.Equal(t, "a", comp.Name)
}

func TestNewErrors(t *testing.T) {
	src := fstest.MapFS{"a.tsx": {Data: []byte("A")}}
	tests := map[string]string{
		"missing id":     "items:\n  - name: A\n",
		"duplicate":      "items:\n  - id: a\n  - id: a\n",
		"missing source": "items:\n  - id: zzz\n",
		"unknown dep":    "items:\n  - id: a\n    registryDependencies: [b]\n",
		"bad yaml":       "items: [",
	}
	for name, index := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New([]byte(index), src)
			require.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	require.Equal(t, "/src/components/ui/alert-dialog.tsx", Path("alert-dialog"))

	id, ok := IDFromPath("/src/components/ui/card.tsx")
	require.True(t, ok)
	require.Equal(t, "card", id)

	for _, p := range []string{"/src/App.tsx", "/src/components/ui/nested/x.tsx", "/src/components/ui/x.ts"} {
		_, ok := IDFromPath(p)
		require.False(t, ok, p)
	}
}
