package sim

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/code-clash/client/internal/domain"
)

// ConnectionManager handles active WebSocket connections thread-safely.
// One live connection per user: a newer connection for the same identity
// supersedes the old one, which is told it was kicked.
type ConnectionManager struct {
	connections map[int64]*websocket.Conn
	usernames   map[int64]string

	// writeMu ensures only one goroutine writes to a specific socket at a
	// time. conn.WriteJSON is not thread-safe.
	writeMu map[int64]*sync.Mutex

	mu sync.RWMutex // protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]*websocket.Conn),
		usernames:   make(map[int64]string),
		writeMu:     make(map[int64]*sync.Mutex),
	}
}

// AddConnection registers a new connection. An existing connection for the
// same user is superseded: it receives a kicked notice and is closed.
func (cm *ConnectionManager) AddConnection(userID int64, conn *websocket.Conn, username string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[userID]; exists {
		oldConn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		_ = oldConn.WriteJSON(domain.ServerMessage{
			Type:    domain.MsgKicked,
			Message: "another connection for this account took over",
		})
		oldConn.Close()
	}

	cm.connections[userID] = conn
	cm.usernames[userID] = username
	cm.writeMu[userID] = &sync.Mutex{}
}

// RemoveConnection removes a user's connection and cleans up locks.
func (cm *ConnectionManager) RemoveConnection(userID int64) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[userID]; exists {
		conn.Close()
		delete(cm.connections, userID)
		delete(cm.usernames, userID)
		delete(cm.writeMu, userID)
	}
}

// RemoveConnectionIfMatching avoids the race where cleanup of an OLD
// connection would accidentally close a NEW one. It reports whether conn
// was the user's current connection: false means the user was superseded
// and is still connected on a newer socket.
func (cm *ConnectionManager) RemoveConnectionIfMatching(userID int64, conn *websocket.Conn) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[userID]; exists && currentConn == conn {
		currentConn.Close()
		delete(cm.connections, userID)
		delete(cm.usernames, userID)
		delete(cm.writeMu, userID)
		return true
	}
	return false
}

// SendMessage sends a JSON message to a specific user.
func (cm *ConnectionManager) SendMessage(userID int64, message domain.ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[userID]
	mu, muExists := cm.writeMu[userID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil // user disconnected, ignore
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(message)
}

// GetUsername returns the username for a connected user.
func (cm *ConnectionManager) GetUsername(userID int64) (string, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	name, exists := cm.usernames[userID]
	return name, exists
}
