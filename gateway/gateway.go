// Package gateway is the transport boundary (C6): it upgrades HTTP
// connections to websockets, authenticates the connecting player, looks up
// their Room, and pumps JSON frames in both directions. Grounded on the
// teacher's Gateway (apps/server/internal/gateway/gateway.go) — same
// connection registry, same readPump/writePump split with a ping ticker —
// but frames are JSON objects (spec.md §4.6) instead of protobuf-encoded
// ClientEnvelope/ServerEnvelope messages.
package gateway

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"eldorado/room"
)

const (
	readLimit       = 65536
	pongWait        = 60 * time.Second
	pingPeriod      = 30 * time.Second
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RoomLookup resolves a gameId to its live Room. The gateway depends on
// this narrow interface rather than importing a registry/lobby package
// directly, so it can be wired against either a single-process registry or
// a remote one later without changing this file.
type RoomLookup interface {
	Get(gameID string) (*room.Room, bool)
}

// TokenVerifier authenticates the playerId carried by a connection
// request. See tokens.Signer for the HMAC-SHA-256 implementation.
type TokenVerifier interface {
	Verify(token string) (playerID string, gameID string, err error)
}

// Gateway owns the live connection registry.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*conn
	rooms       RoomLookup
	tokens      TokenVerifier
}

func New(rooms RoomLookup, tokens TokenVerifier) *Gateway {
	return &Gateway{
		connections: make(map[string]*conn),
		rooms:       rooms,
		tokens:      tokens,
	}
}

type conn struct {
	id       string
	playerID string
	gameID   string
	ws       *websocket.Conn
	send     chan []byte
	room     *room.Room
}

// HandleWebSocket verifies the token, resolves the room, upgrades the
// request, attaches the connection to the room (AddConnection, which pushes
// a STATE_FULL snapshot) and sends WELCOME before starting the pumps. It
// does not submit a JOIN command; seats are taken through the HTTP
// create/join/matchmake flows.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	playerID, gameID, err := g.tokens.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	rm, ok := g.rooms.Get(gameID)
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}

	c := &conn{
		id:       uuid.NewString(),
		playerID: playerID,
		gameID:   gameID,
		ws:       ws,
		send:     make(chan []byte, 256),
		room:     rm,
	}

	g.mu.Lock()
	g.connections[c.id] = c
	g.mu.Unlock()

	roomConn := room.NewConnection(playerID)
	roomConn.Send = c.send
	rm.AddConnection(roomConn)
	c.sendWelcome()

	log.Printf("[gateway] %s connected as %s on game %s", c.id, playerID, gameID)

	go c.writePump()
	go c.readPump(g)
}

func (g *Gateway) removeConnection(c *conn) {
	g.mu.Lock()
	delete(g.connections, c.id)
	g.mu.Unlock()
	c.room.RemoveConnection(c.playerID)
}

func (c *conn) readPump(g *Gateway) {
	defer func() {
		g.removeConnection(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[gateway] read error on %s: %v", c.id, err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
