package room

import (
	"sync"
	"time"
)

// Connection is a room's view of one seated player's outbound link. The
// gateway owns the actual websocket; it registers/deregisters a Connection
// with the room and drains Send. Grounded on the teacher's PlayerConn
// (apps/server/internal/table/table.go), trimmed to what the room itself
// needs to know (poker's Wallet/Stack/Chair fields don't apply here).
type Connection struct {
	PlayerID string
	Send     chan []byte

	mu       sync.Mutex
	online   bool
	lastSeen time.Time
}

// NewConnection creates a Connection with a reasonably sized outbound
// buffer; a slow reader drops frames rather than blocking the room's actor
// loop (see Room.sendTo).
func NewConnection(playerID string) *Connection {
	return &Connection{
		PlayerID: playerID,
		Send:     make(chan []byte, 64),
		online:   true,
		lastSeen: time.Now(),
	}
}

func (c *Connection) setOnline(online bool, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
	c.lastSeen = at
}

func (c *Connection) isOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *Connection) touch(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = at
}

func (c *Connection) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}
