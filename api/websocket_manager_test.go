package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"tweakplay/logger"
)

func TestBroadcastDropsStalledClient(t *testing.T) {
	m := NewWSConnectionManager(logger.Nop())
	m.writeTimeout = 50 * time.Millisecond

	added := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Add(conn)
		close(added)
	}))
	defer ts.Close()
	defer m.CloseAll()

	// The client never reads, so its socket buffers eventually fill.
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-added:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not registered")
	}
	require.Equal(t, 1, m.Len())

	payload := map[string]string{"blob": strings.Repeat("x", 1<<20)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256 && m.Len() > 0; i++ {
			m.Broadcast(payload)
		}
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}
	require.Zero(t, m.Len())
}
