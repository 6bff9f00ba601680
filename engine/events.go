package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"eldorado/card"
)

// EventType is the discriminant of the on-wire event sum type (spec.md
// Design Notes: "events are a tagged variant with payload shape keyed by
// type").
type EventType string

const (
	EventGameCreated     EventType = "GAME_CREATED"
	EventPlayerJoined    EventType = "PLAYER_JOINED"
	EventRoundStarted    EventType = "ROUND_STARTED"
	EventCardsDealt      EventType = "CARDS_DEALT"
	EventTrumpRevealed   EventType = "TRUMP_REVEALED"
	EventPlayerBid       EventType = "PLAYER_BID"
	EventBiddingComplete EventType = "BIDDING_COMPLETE"
	EventTrickStarted    EventType = "TRICK_STARTED"
	EventCardPlayed      EventType = "CARD_PLAYED"
	EventTrumpBroken     EventType = "TRUMP_BROKEN"
	EventTrickCompleted  EventType = "TRICK_COMPLETED"
	EventRoundScored     EventType = "ROUND_SCORED"
	EventGameCompleted   EventType = "GAME_COMPLETED"
	EventInvalidAction   EventType = "INVALID_ACTION"
)

// Event is one entry in the append-only log. EventIndex and Timestamp are
// assigned by the room at commit time (spec.md §4.5 commit pipeline step
//1) — operations below leave both zero and let the caller stamp them.
type Event struct {
	Type       EventType `json:"type"`
	Payload    any       `json:"payload"`
	EventIndex int       `json:"eventIndex"`
	Timestamp  time.Time `json:"timestamp"`
	GameID     string    `json:"gameId"`
}

// eventAlias has the same fields as Event but no UnmarshalJSON method, so
// decoding into it doesn't recurse.
type eventAlias struct {
	Type       EventType       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EventIndex int             `json:"eventIndex"`
	Timestamp  time.Time       `json:"timestamp"`
	GameID     string          `json:"gameId"`
}

// UnmarshalJSON decodes Payload into the concrete struct Type names,
// instead of the map[string]any encoding/json would otherwise produce for
// an `any`-typed field. Replay's applyEvent type-asserts Payload back to
// these structs, so a persisted log has to round-trip through this to be
// replayable at all.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventAlias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodeEventPayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}
	e.Type = raw.Type
	e.Payload = payload
	e.EventIndex = raw.EventIndex
	e.Timestamp = raw.Timestamp
	e.GameID = raw.GameID
	return nil
}

// DecodeEventPayload decodes a raw JSON payload into the concrete struct
// Type names, the same dispatch Event.UnmarshalJSON uses. Exported so a
// persistence backend that stores the payload column separately from the
// envelope (sqlite/postgres both do) can decode it the same way.
func DecodeEventPayload(t EventType, raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch t {
	case EventGameCreated:
		var p GameCreatedPayload
		return p, json.Unmarshal(raw, &p)
	case EventPlayerJoined:
		var p PlayerJoinedPayload
		return p, json.Unmarshal(raw, &p)
	case EventRoundStarted:
		var p RoundStartedPayload
		return p, json.Unmarshal(raw, &p)
	case EventCardsDealt:
		var p CardsDealtPayload
		return p, json.Unmarshal(raw, &p)
	case EventTrumpRevealed:
		var p TrumpRevealedPayload
		return p, json.Unmarshal(raw, &p)
	case EventPlayerBid:
		var p PlayerBidPayload
		return p, json.Unmarshal(raw, &p)
	case EventBiddingComplete:
		var p BiddingCompletePayload
		return p, json.Unmarshal(raw, &p)
	case EventTrickStarted:
		var p TrickStartedPayload
		return p, json.Unmarshal(raw, &p)
	case EventCardPlayed:
		var p CardPlayedPayload
		return p, json.Unmarshal(raw, &p)
	case EventTrumpBroken:
		var p TrumpBrokenPayload
		return p, json.Unmarshal(raw, &p)
	case EventTrickCompleted:
		var p TrickCompletedPayload
		return p, json.Unmarshal(raw, &p)
	case EventRoundScored:
		var p RoundScoredPayload
		return p, json.Unmarshal(raw, &p)
	case EventGameCompleted:
		var p GameCompletedPayload
		return p, json.Unmarshal(raw, &p)
	case EventInvalidAction:
		var p InvalidActionPayload
		return p, json.Unmarshal(raw, &p)
	default:
		return nil, fmt.Errorf("engine: unknown event type %q", t)
	}
}

type GameCreatedPayload struct {
	Config Config `json:"config"`
}

type PlayerJoinedPayload struct {
	PlayerID  string  `json:"playerId"`
	SeatIndex int     `json:"seatIndex"`
	Profile   Profile `json:"profile"`
	IsBot     bool    `json:"isBot"`
	Spectator bool    `json:"spectator"`
}

type RoundStartedPayload struct {
	RoundIndex       int    `json:"roundIndex"`
	CardsPerPlayer   int    `json:"cardsPerPlayer"`
	DealerPlayerID   string `json:"dealerPlayerId"`
	StartingPlayerID string `json:"startingPlayerId"`
}

// CardsDealtPayload carries every hand dealt this round. The room, not the
// engine, redacts this per-connection before broadcast (only the owner
// ever sees their own hand over the wire) — the persisted log entry keeps
// the full truth, since it is the system of record for replay.
type CardsDealtPayload struct {
	Hands map[string][]card.Card `json:"hands"`
}

type TrumpRevealedPayload struct {
	TrumpCard card.Card  `json:"trumpCard"`
	TrumpSuit *card.Suit `json:"trumpSuit"`
}

type PlayerBidPayload struct {
	PlayerID string `json:"playerId"`
	Bid      int    `json:"bid"`
}

type BiddingCompletePayload struct {
	Bids map[string]int `json:"bids"`
}

type TrickStartedPayload struct {
	TrickIndex     int    `json:"trickIndex"`
	LeaderPlayerID string `json:"leaderPlayerId"`
}

type CardPlayedPayload struct {
	PlayerID string    `json:"playerId"`
	Card     card.Card `json:"card"`
	Order    int       `json:"order"`
}

type TrumpBrokenPayload struct {
	PlayerID string `json:"playerId"`
}

type TrickCompletedPayload struct {
	TrickIndex      int    `json:"trickIndex"`
	WinningPlayerID string `json:"winningPlayerId"`
	WinningCardID   string `json:"winningCardId"`
}

type RoundScoredPayload struct {
	Summary RoundSummary `json:"summary"`
}

type GameCompletedPayload struct {
	FinalScores map[string]int `json:"finalScores"`
	Winners     []string       `json:"winners"`
}

type InvalidActionPayload struct {
	PlayerID string    `json:"playerId"`
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
}
