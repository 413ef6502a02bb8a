package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"tweakplay/playground"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// helloMessage is the first frame a client receives.
type helloMessage struct {
	Kind   string           `json:"kind"`
	Client string           `json:"client"`
	State  playground.State `json:"state"`
}

// handleEvents upgrades to a WebSocket and streams bus events until the
// client goes away. Incoming frames are read and discarded.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.DebugErr(err, "websocket upgrade failed")
		return
	}
	id := s.ws.Add(conn)
	defer func() {
		s.ws.Remove(conn)
		_ = conn.Close()
	}()

	if err := s.ws.WriteJSON(conn, helloMessage{Kind: "hello", Client: id, State: s.pg.State()}); err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
