package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(filepath.Join(dir, "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemory(),
		"dir":    NewDir(filepath.Join(dir, "files")),
		"sqlite": sqlite,
	}
}

func TestBackendContract(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get("missing")
			require.ErrorIs(t, err, ErrNotFound)

			keys, err := b.Keys("")
			require.NoError(t, err)
			require.Empty(t, keys)

			require.NoError(t, b.Set("ns-b", `{"x":1}`))
			require.NoError(t, b.Set("ns-a/odd key?", "two"))
			require.NoError(t, b.Set("other", "3"))

			v, err := b.Get("ns-b")
			require.NoError(t, err)
			require.Equal(t, `{"x":1}`, v)

			require.NoError(t, b.Set("ns-b", "overwritten"))
			v, err = b.Get("ns-b")
			require.NoError(t, err)
			require.Equal(t, "overwritten", v)

			keys, err = b.Keys("ns-")
			require.NoError(t, err)
			require.Equal(t, []string{"ns-a/odd key?", "ns-b"}, keys)

			require.NoError(t, b.Remove("ns-b"))
			require.NoError(t, b.Remove("ns-b"))
			_, err = b.Get("ns-b")
			require.ErrorIs(t, err, ErrNotFound)

			v, err = b.Get("ns-a/odd key?")
			require.NoError(t, err)
			require.Equal(t, "two", v)

			require.NoError(t, b.Set("empty", ""))
			v, err = b.Get("empty")
			require.NoError(t, err)
			require.Equal(t, "", v)
		})
	}
}

func TestDirLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := NewDir(dir)
	require.NoError(t, b.Set("k", "v"))
	require.NoError(t, b.Set("k", "w"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "k.json", entries[0].Name())
}

func TestDirMissingBaseDir(t *testing.T) {
	b := NewDir(filepath.Join(t.TempDir(), "not", "yet"))
	keys, err := b.Keys("")
	require.NoError(t, err)
	require.Empty(t, keys)
	require.NoError(t, b.Remove("x"))
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, kind := range []Kind{KindMemory, KindDir, KindSQLite, ""} {
		b, err := Open(kind, dir)
		require.NoError(t, err, kind)
		require.NoError(t, b.Set("k", "v"))
		require.NoError(t, Close(b))
	}

	_, err := os.Stat(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tweakplay.db"))
	require.NoError(t, err)

	_, err = Open(Kind("redis"), dir)
	require.Error(t, err)
}
