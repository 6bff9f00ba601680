package replay

import (
	"testing"
	"time"

	"eldorado/engine"
)

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// stamp mimics the room's commit pipeline: assign a dense, 0-based,
// monotonic eventIndex and the gameId to each event as it is produced.
func stamp(gameID string, next *int, evs []engine.Event) []engine.Event {
	out := make([]engine.Event, len(evs))
	for i, e := range evs {
		e.GameID = gameID
		e.EventIndex = *next
		*next++
		out[i] = e
	}
	return out
}

// Scenario F — replay equivalence: a live two-player single-round game's
// recorded log, folded back through ReplayGame, matches the live result.
func TestReplayGame_MatchesLiveSimulation(t *testing.T) {
	gameID := "g1"
	idx := 0
	var log []engine.Event

	g, evs, err := engine.NewGame(gameID, engine.Config{
		SessionSeed: "S", RoundCount: 1, MinPlayers: 2, MaxPlayers: 2,
	}, fixedNow)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)

	for _, pid := range []string{"p1", "p2"} {
		g, evs, err = engine.AddPlayer(g, pid, engine.Profile{DisplayName: pid}, false, false, fixedNow)
		if err != nil {
			t.Fatalf("AddPlayer(%s): %v", pid, err)
		}
		log = append(log, stamp(gameID, &idx, evs)...)
	}

	g, evs, err = engine.StartRound(g, fixedNow)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)

	g, evs, err = engine.ApplyBid(g, "p1", 1, fixedNow)
	if err != nil {
		t.Fatalf("bid p1: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)
	g, evs, err = engine.ApplyBid(g, "p2", 0, fixedNow)
	if err != nil {
		t.Fatalf("bid p2: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)

	leaderID := g.RoundState.TrickInProgress.LeaderPlayerID
	otherID := "p1"
	if leaderID == "p1" {
		otherID = "p2"
	}
	leaderCard := g.PlayerStates[leaderID].Hand[0].ID
	g, evs, err = engine.PlayCard(g, leaderID, leaderCard, fixedNow)
	if err != nil {
		t.Fatalf("play leader: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)

	otherCard := g.PlayerStates[otherID].Hand[0].ID
	g, evs, err = engine.PlayCard(g, otherID, otherCard, fixedNow)
	if err != nil {
		t.Fatalf("play other: %v", err)
	}
	log = append(log, stamp(gameID, &idx, evs)...)

	replayed, err := ReplayGame(log)
	if err != nil {
		t.Fatalf("ReplayGame: %v", err)
	}

	if replayed.Phase != g.Phase {
		t.Fatalf("phase mismatch: replayed=%s live=%s", replayed.Phase, g.Phase)
	}
	if len(replayed.RoundSummaries) != len(g.RoundSummaries) {
		t.Fatalf("roundSummaries length mismatch")
	}
	for pid, score := range g.CumulativeScores {
		if replayed.CumulativeScores[pid] != score {
			t.Fatalf("cumulativeScores[%s]: replayed=%d live=%d", pid, replayed.CumulativeScores[pid], score)
		}
	}
	liveSummary := g.RoundSummaries[0]
	replayedSummary := replayed.RoundSummaries[0]
	for pid, d := range liveSummary.Deltas {
		if replayedSummary.Deltas[pid] != d {
			t.Fatalf("round 0 delta[%s]: replayed=%d live=%d", pid, replayedSummary.Deltas[pid], d)
		}
	}
}

func TestReplayGame_RejectsNonContiguousEventIndex(t *testing.T) {
	events := []engine.Event{
		{Type: engine.EventGameCreated, GameID: "g1", EventIndex: 0, Payload: engine.GameCreatedPayload{}},
		{Type: engine.EventPlayerJoined, GameID: "g1", EventIndex: 2, Payload: engine.PlayerJoinedPayload{PlayerID: "p1"}},
	}
	_, err := ReplayGame(events)
	re, ok := err.(*ReplayError)
	if !ok || re.Reason != ReasonCorruptLog {
		t.Fatalf("expected CORRUPT_LOG, got %v", err)
	}
}

func TestReplayGame_RejectsGameIDMismatch(t *testing.T) {
	events := []engine.Event{
		{Type: engine.EventGameCreated, GameID: "g1", EventIndex: 0, Payload: engine.GameCreatedPayload{}},
		{Type: engine.EventPlayerJoined, GameID: "g2", EventIndex: 1, Payload: engine.PlayerJoinedPayload{PlayerID: "p1"}},
	}
	_, err := ReplayGame(events)
	re, ok := err.(*ReplayError)
	if !ok || re.Reason != ReasonCorruptLog {
		t.Fatalf("expected CORRUPT_LOG, got %v", err)
	}
}
