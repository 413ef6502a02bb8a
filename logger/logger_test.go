package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Debug("hidden")
	require.Zero(t, buf.Len())

	l.Warn("shown")
	require.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	l.With("component", "editcache").Error(errors.New("quota exceeded"), "write failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "editcache", entry["component"])
	require.Equal(t, "quota exceeded", entry["error"])
	require.Equal(t, "error", entry["level"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	require.NotPanics(t, func() {
		l.Info("x")
		l.Warn("x")
		l.Debug("x")
		l.Error(errors.New("x"), "x")
		l.DebugErr(errors.New("x"), "x")
		require.Nil(t, l.With("k", "v"))
		require.Nil(t, l.WithFields(map[string]any{"k": "v"}))
	})
}
