package registry

import (
	"fmt"

	"eldorado/engine"
	"eldorado/room"
)

// JoinHuman seats a human player in an existing room and returns the
// seat index the engine assigned, so the caller (httpapi) can mint a
// token carrying it.
func JoinHuman(r *room.Room, playerID string, profile engine.Profile) (int, error) {
	if err := r.SubmitCommand(room.Command{
		Type:     room.CmdJoin,
		PlayerID: playerID,
		Profile:  profile,
	}); err != nil {
		return 0, err
	}
	view := r.Snapshot(playerID)
	if view.You == nil {
		return 0, fmt.Errorf("registry: join succeeded but player %s has no seat", playerID)
	}
	return view.You.SeatIndex, nil
}

// FillWithBots seats up to count bot players, stopping at the first join
// the room rejects (once the room has auto-started its first round at
// MinPlayers, further active seats are refused). Used by matchmaking to top a
// public room up to a target size, per spec.md §6's POST /api/matchmake.
func FillWithBots(r *room.Room, count int) {
	for i := 0; i < count; i++ {
		botID := fmt.Sprintf("bot-%s-%d", r.ID, i)
		err := r.SubmitCommand(room.Command{
			Type:     room.CmdJoin,
			PlayerID: botID,
			IsBot:    true,
			Profile:  engine.Profile{DisplayName: fmt.Sprintf("Bot %d", i+1)},
		})
		if err != nil {
			break
		}
	}
}

// Matchmake creates a public room and fills every remaining seat with
// bots, per spec.md §6's POST /api/matchmake contract.
func (reg *Registry) Matchmake(cfg engine.Config, humanPlayerID string, profile engine.Profile) (gameID string, seatIndex int, err error) {
	// The room auto-starts once MinPlayers are seated and then refuses new
	// seats, so a matchmade room waits for a full table before starting.
	cfg.MinPlayers = cfg.MaxPlayers
	gameID, _, r, err := reg.CreateRoom(cfg)
	if err != nil {
		return "", 0, err
	}
	seatIndex, err = JoinHuman(r, humanPlayerID, profile)
	if err != nil {
		return "", 0, err
	}
	FillWithBots(r, cfg.MaxPlayers-1)
	return gameID, seatIndex, nil
}
