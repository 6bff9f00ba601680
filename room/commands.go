package room

import "eldorado/engine"

// CommandType enumerates the actions a Room's actor loop accepts, per
// spec.md §4.5. Named after what each does rather than reusing the
// teacher's poker-specific SitDown/Action/BuyIn vocabulary.
type CommandType string

const (
	CmdJoin  CommandType = "JOIN"
	CmdLeave CommandType = "LEAVE"
	CmdBid   CommandType = "BID"
	CmdPlay  CommandType = "PLAY"
	CmdTick  CommandType = "TICK"
	CmdClose CommandType = "CLOSE"
)

// Command is submitted to a Room's actor loop via SubmitCommand. Only the
// fields relevant to its Type are read. Response, if non-nil, receives the
// single error result (nil on success) before SubmitCommand returns;
// grounded on the teacher's Event{..., Response chan error} pattern
// (apps/server/internal/table/table.go).
type Command struct {
	Type CommandType

	PlayerID  string
	Profile   engine.Profile
	IsBot     bool
	Spectator bool

	Bid     int
	CardID  string

	Response chan error
}
