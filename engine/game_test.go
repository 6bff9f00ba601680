package engine

import (
	"reflect"
	"testing"
	"time"

	"eldorado/card"
)

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, sessionSeed string, roundCount int, playerIDs ...string) *GameState {
	t.Helper()
	g, _, err := NewGame("g1", Config{
		SessionSeed: sessionSeed, RoundCount: roundCount,
		MinPlayers: 2, MaxPlayers: len(playerIDs), EnforceHookRule: true,
	}, fixedNow)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for _, pid := range playerIDs {
		var events []Event
		g, events, err = AddPlayer(g, pid, Profile{DisplayName: pid}, false, false, fixedNow)
		if err != nil {
			t.Fatalf("AddPlayer(%s): %v", pid, err)
		}
		_ = events
	}
	return g
}

// Scenario A — two-player single round, determinism.
func TestScenarioA_TwoPlayerSingleRoundDeterminism(t *testing.T) {
	run := func() []Event {
		g := newTestGame(t, "S", 1, "p1", "p2")
		g, _, err := StartRound(g, fixedNow)
		if err != nil {
			t.Fatalf("StartRound: %v", err)
		}
		var all []Event
		g, ev, err := ApplyBid(g, "p1", 1, fixedNow)
		if err != nil {
			t.Fatalf("bid p1: %v", err)
		}
		all = append(all, ev...)
		g, ev, err = ApplyBid(g, "p2", 0, fixedNow)
		if err != nil {
			t.Fatalf("bid p2: %v", err)
		}
		all = append(all, ev...)

		leaderID := g.RoundState.TrickInProgress.LeaderPlayerID
		otherID := "p1"
		if leaderID == "p1" {
			otherID = "p2"
		}
		leaderCard := g.PlayerStates[leaderID].Hand[0].ID
		g, ev, err = PlayCard(g, leaderID, leaderCard, fixedNow)
		if err != nil {
			t.Fatalf("play leader: %v", err)
		}
		all = append(all, ev...)
		otherCard := g.PlayerStates[otherID].Hand[0].ID
		g, ev, err = PlayCard(g, otherID, otherCard, fixedNow)
		if err != nil {
			t.Fatalf("play other: %v", err)
		}
		all = append(all, ev...)

		if g.Phase != PhaseCompleted {
			t.Fatalf("expected COMPLETED phase, got %s", g.Phase)
		}
		scored := 0
		for _, e := range all {
			if e.Type == EventRoundScored {
				scored++
				summary := e.Payload.(RoundScoredPayload).Summary
				for pid, delta := range summary.Deltas {
					bid := summary.Bids[pid]
					tricks := summary.TricksWon[pid]
					want := -(5 + bid)
					if tricks == bid {
						want = 5 + bid
					}
					if delta != want {
						t.Fatalf("scoring law violated for %s: got %d want %d", pid, delta, want)
					}
				}
			}
		}
		if scored != 1 {
			t.Fatalf("expected exactly one ROUND_SCORED event, got %d", scored)
		}
		return all
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed and action sequence produced divergent event logs")
	}
}

// Scenario B — follow-suit enforcement.
func TestScenarioB_FollowSuitEnforcement(t *testing.T) {
	spades := card.Spades
	g := &GameState{
		GameID: "g1",
		Config: Config{SessionSeed: "S", RoundCount: 1, MinPlayers: 2, MaxPlayers: 2},
		Phase:  PhasePlaying,
		Players: []Player{
			{PlayerID: "p1", SeatIndex: 0}, {PlayerID: "p2", SeatIndex: 1},
		},
		PlayerStates: map[string]*PlayerState{
			"p1": {Hand: []card.Card{card.New(card.Hearts, card.Ace, 0), card.New(card.Clubs, card.Two, 0)}},
			"p2": {Hand: []card.Card{card.New(card.Hearts, card.King, 0), card.New(card.Clubs, card.Three, 0)}},
		},
		CumulativeScores: map[string]int{"p1": 0, "p2": 0},
		RoundState: &RoundState{
			RoundIndex: 0, CardsPerPlayer: 2, TrumpSuit: &spades, BiddingComplete: true,
			Bids:            map[string]*int{"p1": intPtr(1), "p2": intPtr(1)},
			TrickInProgress: &TrickState{TrickIndex: 0, LeaderPlayerID: "p1"},
		},
	}

	heartsAce := g.PlayerStates["p1"].Hand[0].ID
	g, _, err := PlayCard(g, "p1", heartsAce, fixedNow)
	if err != nil {
		t.Fatalf("p1 lead H-A: %v", err)
	}

	clubsThree := g.PlayerStates["p2"].Hand[1].ID
	_, _, err = PlayCard(g, "p2", clubsThree, fixedNow)
	ee, ok := err.(*EngineError)
	if !ok || ee.Code != CodeMustFollowSuit {
		t.Fatalf("expected MUST_FOLLOW_SUIT, got %v", err)
	}

	heartsKing := g.PlayerStates["p2"].Hand[0].ID
	g, _, err = PlayCard(g, "p2", heartsKing, fixedNow)
	if err != nil {
		t.Fatalf("p2 follow H-K: %v", err)
	}
	last := g.RoundState.CompletedTricks[len(g.RoundState.CompletedTricks)-1]
	if last.WinningPlayerID != "p1" {
		t.Fatalf("expected p1 (Ace) to win the trick, got %s", last.WinningPlayerID)
	}
}

// Scenario C — trump lead restriction.
func TestScenarioC_CannotLeadTrumpBeforeBroken(t *testing.T) {
	spades := card.Spades
	g := &GameState{
		GameID: "g1",
		Config: Config{SessionSeed: "S", RoundCount: 1, MinPlayers: 2, MaxPlayers: 2},
		Phase:  PhasePlaying,
		Players: []Player{
			{PlayerID: "p1", SeatIndex: 0}, {PlayerID: "p2", SeatIndex: 1},
		},
		PlayerStates: map[string]*PlayerState{
			"p1": {Hand: []card.Card{card.New(card.Spades, card.King, 0), card.New(card.Hearts, card.Two, 0)}},
			"p2": {Hand: []card.Card{card.New(card.Hearts, card.Three, 0), card.New(card.Clubs, card.Four, 0)}},
		},
		CumulativeScores: map[string]int{"p1": 0, "p2": 0},
		RoundState: &RoundState{
			RoundIndex: 0, CardsPerPlayer: 2, TrumpSuit: &spades, BiddingComplete: true,
			Bids:            map[string]*int{"p1": intPtr(0), "p2": intPtr(0)},
			TrickInProgress: &TrickState{TrickIndex: 0, LeaderPlayerID: "p1"},
		},
	}

	spadeKing := g.PlayerStates["p1"].Hand[0].ID
	_, _, err := PlayCard(g, "p1", spadeKing, fixedNow)
	ee, ok := err.(*EngineError)
	if !ok || ee.Code != CodeCannotLeadTrump {
		t.Fatalf("expected CANNOT_LEAD_TRUMP, got %v", err)
	}

	heartsTwo := g.PlayerStates["p1"].Hand[1].ID
	if _, _, err := PlayCard(g, "p1", heartsTwo, fixedNow); err != nil {
		t.Fatalf("leading H-2 should be legal: %v", err)
	}
}

// Scenario D — trump broken when void of led suit.
func TestScenarioD_TrumpBrokenWhenVoid(t *testing.T) {
	spades := card.Spades
	g := &GameState{
		GameID: "g1",
		Config: Config{SessionSeed: "S", RoundCount: 1, MinPlayers: 2, MaxPlayers: 2},
		Phase:  PhasePlaying,
		Players: []Player{
			{PlayerID: "p1", SeatIndex: 0}, {PlayerID: "p2", SeatIndex: 1},
		},
		PlayerStates: map[string]*PlayerState{
			"p1": {Hand: []card.Card{card.New(card.Hearts, card.Ten, 0)}},
			"p2": {Hand: []card.Card{card.New(card.Spades, card.Four, 0)}},
		},
		CumulativeScores: map[string]int{"p1": 0, "p2": 0},
		RoundState: &RoundState{
			RoundIndex: 0, CardsPerPlayer: 1, TrumpSuit: &spades, BiddingComplete: true,
			Bids:            map[string]*int{"p1": intPtr(0), "p2": intPtr(1)},
			TrickInProgress: &TrickState{TrickIndex: 0, LeaderPlayerID: "p1"},
		},
	}

	heartsTen := g.PlayerStates["p1"].Hand[0].ID
	g, ev, err := PlayCard(g, "p1", heartsTen, fixedNow)
	if err != nil {
		t.Fatalf("p1 lead H-10: %v", err)
	}
	spadeFour := g.PlayerStates["p2"].Hand[0].ID
	g, ev2, err := PlayCard(g, "p2", spadeFour, fixedNow)
	if err != nil {
		t.Fatalf("p2 trump in: %v", err)
	}
	ev = append(ev, ev2...)

	foundBroken := false
	for _, e := range ev {
		if e.Type == EventTrumpBroken {
			foundBroken = true
		}
	}
	if !foundBroken {
		t.Fatalf("expected TRUMP_BROKEN event")
	}
	if !g.RoundState.TrumpBroken {
		t.Fatalf("expected trumpBroken=true")
	}
	last := g.RoundState.CompletedTricks[len(g.RoundState.CompletedTricks)-1]
	if last.WinningPlayerID != "p2" {
		t.Fatalf("expected p2 (trump) to win, got %s", last.WinningPlayerID)
	}
}

// Scenario E — tie-break by play order across merged decks.
func TestScenarioE_TieBreakByPlayOrder(t *testing.T) {
	spades := card.Spades
	ledSuit := card.Spades
	trick := &TrickState{
		TrickIndex: 0, LeaderPlayerID: "p1", LedSuit: &ledSuit,
		Plays: []Play{
			{PlayerID: "p1", Card: card.New(card.Spades, card.Three, 0), Order: 0},
			{PlayerID: "p2", Card: card.New(card.Spades, card.Ace, 0), Order: 1},
			{PlayerID: "p3", Card: card.New(card.Spades, card.Ace, 1), Order: 2},
		},
	}
	winner := trickWinner(trick, &spades)
	if winner.PlayerID != "p3" {
		t.Fatalf("expected p3 to win the tie by later play order, got %s", winner.PlayerID)
	}
}

func intPtr(i int) *int { return &i }
