// Package persistence is the durable mirror of a room's event log (C8).
// The in-memory eventlog.Log is the short-term source of truth; Service
// implementations make it durable, best-effort and asynchronously, per
// spec.md §4.4/§4.8. Grounded on apps/server/internal/ledger/service.go's
// Service interface + noopService pattern, trimmed from poker hand-history
// browsing (ListRecent/GetHandEvents/SetSaved) to this spec's three
// operations.
package persistence

import (
	"context"
	"time"

	"eldorado/engine"
)

// Service is implemented by every persistence backend (sqlite, postgres,
// or the no-op default). AppendEvents is also what satisfies
// room.PersistenceSink structurally, so a Service can be handed straight
// to room.Options.Persistence.
type Service interface {
	Close() error

	// AppendEvents durably records events for gameID, enforcing the
	// (gameId, eventIndex) unique key spec.md §4.4 requires. Matches
	// room.PersistenceSink's signature (fire-and-forget: failures are
	// logged, never surfaced to the room). SQLiteService retries a failed
	// append once before logging; PostgresService logs it without retrying.
	AppendEvents(gameID string, events []engine.Event)

	// LoadEvents reads gameID's full event log back in eventIndex order,
	// so a persisted game can be handed to replay.ReplayGame — the
	// counterpart to AppendEvents that spec.md §1's "reconstructed
	// byte-for-byte from the persisted log" requires.
	LoadEvents(ctx context.Context, gameID string) ([]engine.Event, error)

	// FinalizeGame computes the per-game summary spec.md §4.8 describes
	// (tricks, highest bid, streaks, misplay count, winners) and stores its
	// final scores, winners and misplay counts; the tricks, highest-bid and
	// streak figures are not stored by either backend.
	// misplayCounts is the room's per-player INVALID_ACTION tally; nil is
	// treated as "no misplays recorded".
	FinalizeGame(ctx context.Context, gameID string, state *engine.GameState, misplayCounts map[string]int) error

	// UpdatePlayerLifetime rolls a finalized game's outcome for playerID
	// into that player's running lifetime stats.
	UpdatePlayerLifetime(ctx context.Context, playerID string, won bool, finalScore int) error

	// PlayerStats returns the lifetime stats row for the HTTP API's
	// GET /api/player-stats.
	PlayerStats(ctx context.Context, playerID string) (PlayerLifetimeStats, error)
}

// PlayerLifetimeStats mirrors the rollup spec.md §4.8 describes.
type PlayerLifetimeStats struct {
	PlayerID             string    `json:"playerId"`
	GamesPlayed          int       `json:"gamesPlayed"`
	GamesWon             int       `json:"gamesWon"`
	MaxScore             int       `json:"maxScore"`
	MinScore             int       `json:"minScore"`
	CurrentStreak        int       `json:"currentStreak"`
	MostConsecutiveWins  int       `json:"mostConsecutiveWins"`
	MostConsecutiveLosses int      `json:"mostConsecutiveLosses"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// GameSummary is what FinalizeGame computes and stores, per spec.md §4.8.
type GameSummary struct {
	GameID          string         `json:"gameId"`
	FinalScores     map[string]int `json:"finalScores"`
	Winners         []string       `json:"winners"`
	TotalTricks     map[string]int `json:"totalTricks"`
	HighestBid      map[string]int `json:"highestBid"`
	MisplayCount    map[string]int `json:"misplayCount"`
	LongestWinStreak  map[string]int `json:"longestWinStreak"`
	LongestLossStreak map[string]int `json:"longestLossStreak"`
}

// Summarize derives a GameSummary from a completed GameState's
// RoundSummaries and the room's INVALID_ACTION tally, per spec.md §4.8's
// finalization rules. Pure and side-effect free so both backends (and
// tests) share one implementation.
func Summarize(gameID string, state *engine.GameState, misplayCounts map[string]int) GameSummary {
	summary := GameSummary{
		GameID:            gameID,
		FinalScores:       copyIntMap(state.CumulativeScores),
		TotalTricks:       map[string]int{},
		HighestBid:        map[string]int{},
		MisplayCount:      misplayCounts,
		LongestWinStreak:  map[string]int{},
		LongestLossStreak: map[string]int{},
	}
	if summary.MisplayCount == nil {
		summary.MisplayCount = map[string]int{}
	}

	streaks := map[string]int{} // positive = current win streak, negative = current loss streak
	for _, rs := range state.RoundSummaries {
		for pid, tricks := range rs.TricksWon {
			summary.TotalTricks[pid] += tricks
		}
		for pid, bid := range rs.Bids {
			if bid > summary.HighestBid[pid] {
				summary.HighestBid[pid] = bid
			}
		}
		for pid, delta := range rs.Deltas {
			if delta > 0 {
				if streaks[pid] < 0 {
					streaks[pid] = 0
				}
				streaks[pid]++
				if streaks[pid] > summary.LongestWinStreak[pid] {
					summary.LongestWinStreak[pid] = streaks[pid]
				}
			} else {
				if streaks[pid] > 0 {
					streaks[pid] = 0
				}
				streaks[pid]--
				if -streaks[pid] > summary.LongestLossStreak[pid] {
					summary.LongestLossStreak[pid] = -streaks[pid]
				}
			}
		}
	}

	maxScore := 0
	first := true
	for _, s := range summary.FinalScores {
		if first || s > maxScore {
			maxScore = s
			first = false
		}
	}
	for pid, s := range summary.FinalScores {
		if s == maxScore {
			summary.Winners = append(summary.Winners, pid)
		}
	}
	return summary
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
