package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tweakplay/logger"
)

// writeWait bounds a single frame write so a stalled client cannot block
// event publishing.
const writeWait = 5 * time.Second

// connWithMutex wraps a WebSocket connection with its own mutex for thread-safe writes.
type connWithMutex struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// WSConnectionManager manages WebSocket connections for broadcasting.
type WSConnectionManager struct {
	mu          sync.RWMutex
	connections  map[*websocket.Conn]*connWithMutex
	log          *logger.Logger
	writeTimeout time.Duration
}

// NewWSConnectionManager creates a new WebSocket connection manager.
func NewWSConnectionManager(log *logger.Logger) *WSConnectionManager {
	return &WSConnectionManager{
		connections:  make(map[*websocket.Conn]*connWithMutex),
		log:          log.With("component", "ws"),
		writeTimeout: writeWait,
	}
}

// Add adds a connection to the manager and returns its client id.
func (m *WSConnectionManager) Add(conn *websocket.Conn) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.connections[conn] = &connWithMutex{
		id:   id,
		conn: conn,
	}
	n := len(m.connections)
	m.mu.Unlock()

	m.log.WithFields(map[string]any{"client": id, "clients": n}).Debug("client connected")
	return id
}

// Remove removes a connection from the manager.
func (m *WSConnectionManager) Remove(conn *websocket.Conn) {
	m.mu.Lock()
	cwm, ok := m.connections[conn]
	delete(m.connections, conn)
	m.mu.Unlock()

	if ok {
		m.log.With("client", cwm.id).Debug("client disconnected")
	}
}

// Len reports the number of connected clients.
func (m *WSConnectionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Broadcast sends a message to all connected clients.
func (m *WSConnectionManager) Broadcast(message any) {
	m.mu.RLock()
	// Create a copy of connections to iterate over while holding the lock
	conns := make([]*connWithMutex, 0, len(m.connections))
	for _, cwm := range m.connections {
		conns = append(conns, cwm)
	}
	m.mu.RUnlock()

	// Now iterate and write to each connection (without holding the main lock)
	for _, cwm := range conns {
		cwm.mu.Lock()
		err := m.write(cwm.conn, message)
		cwm.mu.Unlock()

		if err != nil {
			// Connection is dead or stalled, remove it
			m.log.DebugErr(err, "dropping websocket client")
			m.Remove(cwm.conn)
			_ = cwm.conn.Close()
		}
	}
}

// WriteJSON safely writes JSON to a specific connection using its mutex.
func (m *WSConnectionManager) WriteJSON(conn *websocket.Conn, message any) error {
	m.mu.RLock()
	cwm, exists := m.connections[conn]
	m.mu.RUnlock()

	if !exists {
		return m.write(conn, message)
	}

	cwm.mu.Lock()
	defer cwm.mu.Unlock()
	return m.write(cwm.conn, message)
}

func (m *WSConnectionManager) write(conn *websocket.Conn, message any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(m.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(message)
}

// CloseAll closes and forgets every connection.
func (m *WSConnectionManager) CloseAll() {
	m.mu.Lock()
	conns := m.connections
	m.connections = make(map[*websocket.Conn]*connWithMutex)
	m.mu.Unlock()

	for conn := range conns {
		_ = conn.Close()
	}
}
