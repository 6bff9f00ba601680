package gateway

import (
	"encoding/json"
	"log"
	"time"

	"eldorado/room"
)

// clientFrameType discriminates inbound JSON frames (spec.md §4.6).
type clientFrameType string

const (
	frameBidType           clientFrameType = "BID"
	framePlayCardType      clientFrameType = "PLAY_CARD"
	frameRequestStateType  clientFrameType = "REQUEST_STATE"
	frameUpdateProfileType clientFrameType = "UPDATE_PROFILE"
	framePingType          clientFrameType = "PING"
)

type clientFrame struct {
	Type        clientFrameType `json:"type"`
	CardID      string          `json:"cardId,omitempty"`
	Value       *int            `json:"value,omitempty"`
	Nonce       string          `json:"nonce,omitempty"`
	DisplayName *string         `json:"displayName,omitempty"`
	AvatarSeed  *string         `json:"avatarSeed,omitempty"`
	Color       *string         `json:"color,omitempty"`
}

type serverFrame struct {
	Nonce     string    `json:"nonce,omitempty"`
	Timestamp time.Time `json:"ts,omitempty"`
}

// handleFrame parses one inbound JSON object and forwards it to the room
// as a Command, per spec.md §4.6: "unknown or malformed frames are
// ignored with a single error reply."
func (c *conn) handleFrame(data []byte) {
	var f clientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.sendRaw(errorFrame("malformed frame"))
		return
	}

	switch f.Type {
	case frameBidType:
		if f.Value == nil {
			c.sendRaw(errorFrame("BID requires value"))
			return
		}
		if err := c.room.SubmitCommand(room.Command{Type: room.CmdBid, PlayerID: c.playerID, Bid: *f.Value}); err != nil {
			c.sendRaw(errorFrame(err.Error()))
		}

	case framePlayCardType:
		if f.CardID == "" {
			c.sendRaw(errorFrame("PLAY_CARD requires cardId"))
			return
		}
		if err := c.room.SubmitCommand(room.Command{Type: room.CmdPlay, PlayerID: c.playerID, CardID: f.CardID}); err != nil {
			c.sendRaw(errorFrame(err.Error()))
		}

	case frameRequestStateType:
		view := c.room.Snapshot(c.playerID)
		data, err := json.Marshal(struct {
			Type  string      `json:"type"`
			State interface{} `json:"state"`
		}{Type: "STATE_FULL", State: view})
		if err != nil {
			log.Printf("[gateway] marshal STATE_FULL: %v", err)
			return
		}
		c.sendRaw(data)

	case frameUpdateProfileType:
		// Profile edits don't mutate engine state (no corresponding engine
		// operation); the frame is accepted and ignored, with no reply.

	case framePingType:
		c.sendRaw(pongFrame(f.Nonce))

	default:
		c.sendRaw(errorFrame("unknown frame type"))
	}
}

// sendWelcome emits the WELCOME frame spec.md §4.6 requires immediately on
// connect, carrying the viewer's own seat (if any) so the client knows
// whether it is seated or spectating before the first STATE_FULL arrives.
func (c *conn) sendWelcome() {
	view := c.room.Snapshot(c.playerID)
	var seatIndex *int
	isSpectator := true
	for _, p := range view.Players {
		if p.PlayerID != c.playerID {
			continue
		}
		idx := p.SeatIndex
		seatIndex = &idx
		isSpectator = p.Spectator
	}
	data, err := json.Marshal(struct {
		Type        string `json:"type"`
		PlayerID    string `json:"playerId"`
		GameID      string `json:"gameId"`
		SeatIndex   *int   `json:"seatIndex"`
		IsSpectator bool   `json:"isSpectator"`
	}{Type: "WELCOME", PlayerID: c.playerID, GameID: c.gameID, SeatIndex: seatIndex, IsSpectator: isSpectator})
	if err != nil {
		log.Printf("[gateway] marshal WELCOME: %v", err)
		return
	}
	c.sendRaw(data)
}

func (c *conn) sendRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[gateway] dropping outbound frame for %s: send buffer full", c.id)
	}
}

func errorFrame(message string) []byte {
	data, _ := json.Marshal(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "ERROR", Message: message})
	return data
}

func pongFrame(nonce string) []byte {
	data, _ := json.Marshal(struct {
		Type  string    `json:"type"`
		Nonce string    `json:"nonce,omitempty"`
		TS    time.Time `json:"ts"`
	}{Type: "PONG", Nonce: nonce, TS: time.Now()})
	return data
}
