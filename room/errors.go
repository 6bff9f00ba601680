package room

import "errors"

var (
	// ErrRoomClosed mirrors the teacher's ErrTableClosed (table.go): once a
	// room has stopped, every further command fails this way rather than
	// hanging on a closed channel.
	ErrRoomClosed = errors.New("room: closed")

	ErrUnknownCommand = errors.New("room: unknown command type")
)
