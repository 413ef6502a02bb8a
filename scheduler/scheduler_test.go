package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tweakplay/logger"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualAfterFunc(t *testing.T) {
	v := NewVirtual(epoch)
	fired := 0
	v.AfterFunc(time.Second, func() { fired++ })

	v.Advance(999 * time.Millisecond)
	require.Zero(t, fired)
	require.Equal(t, 1, v.Pending())

	v.Advance(time.Millisecond)
	require.Equal(t, 1, fired)
	require.Zero(t, v.Pending())

	v.Advance(time.Hour)
	require.Equal(t, 1, fired)
	require.Equal(t, epoch.Add(time.Hour+time.Second), v.Now())
}

func TestVirtualStop(t *testing.T) {
	v := NewVirtual(epoch)
	fired := false
	task := v.AfterFunc(time.Second, func() { fired = true })

	require.True(t, task.Stop())
	require.False(t, task.Stop())
	v.Advance(time.Minute)
	require.False(t, fired)
}

func TestVirtualEvery(t *testing.T) {
	v := NewVirtual(epoch)
	var at []time.Time
	task := v.Every(10*time.Second, func() { at = append(at, v.Now()) })

	v.Advance(35 * time.Second)
	require.Equal(t, []time.Time{
		epoch.Add(10 * time.Second),
		epoch.Add(20 * time.Second),
		epoch.Add(30 * time.Second),
	}, at)

	require.True(t, task.Stop())
	v.Advance(time.Minute)
	require.Len(t, at, 3)

	require.False(t, v.Every(0, func() {}).Stop())
}

func TestVirtualOrdersCallbacks(t *testing.T) {
	v := NewVirtual(epoch)
	var order []string
	v.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	v.AfterFunc(time.Second, func() { order = append(order, "a") })
	v.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	v.Advance(5 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestVirtualCallbackMaySchedule(t *testing.T) {
	v := NewVirtual(epoch)
	fired := 0
	v.AfterFunc(time.Second, func() {
		fired++
		v.AfterFunc(time.Second, func() { fired++ })
	})

	v.Advance(2 * time.Second)
	require.Equal(t, 2, fired)
}

func TestRealAfterFuncAndStop(t *testing.T) {
	r := NewReal(logger.Nop())
	done := make(chan struct{})
	r.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	var fired atomic.Bool
	task := r.AfterFunc(time.Hour, func() { fired.Store(true) })
	require.True(t, task.Stop())
	require.False(t, fired.Load())
}

func TestRealEvery(t *testing.T) {
	r := NewReal(logger.Nop())
	var n atomic.Int32
	task := r.Every(5*time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, time.Millisecond)
	require.True(t, task.Stop())
	require.False(t, task.Stop())

	require.False(t, r.Every(0, func() {}).Stop())
}
