package room

import "eldorado/engine"

// ServerMessageType discriminates the envelope the gateway marshals to
// JSON and writes to a connection's websocket. Spec.md §4.6 mandates a
// plain JSON wire format in place of the teacher's protobuf oneof envelope
// (apps/server/internal/gateway/gateway.go); ServerMessage plays the same
// "one struct, a type tag, and an optional payload" role in Go's native
// idiom via encoding/json instead of a generated oneof.
type ServerMessageType string

const (
	ServerMsgGameEvent ServerMessageType = "GAME_EVENT"
	ServerMsgStateFull ServerMessageType = "STATE_FULL"
	ServerMsgError     ServerMessageType = "ERROR"
)

// ServerMessage is what Room hands the gateway to serialize. Only the
// field matching Type is populated.
type ServerMessage struct {
	Type    ServerMessageType     `json:"type"`
	Event   *engine.Event         `json:"event,omitempty"`
	State   *engine.ClientGameView `json:"state,omitempty"`
	Code    engine.ErrorCode      `json:"code,omitempty"`
	Message string                `json:"message,omitempty"`
}

func gameEventMessage(ev engine.Event) ServerMessage {
	e := ev
	return ServerMessage{Type: ServerMsgGameEvent, Event: &e}
}

func stateFullMessage(view engine.ClientGameView) ServerMessage {
	v := view
	return ServerMessage{Type: ServerMsgStateFull, State: &v}
}

func errorMessage(code engine.ErrorCode, message string) ServerMessage {
	return ServerMessage{Type: ServerMsgError, Code: code, Message: message}
}
