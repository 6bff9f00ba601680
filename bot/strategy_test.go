package bot

import (
	"testing"
	"time"

	"eldorado/card"
	"eldorado/engine"
)

func TestBaseline_ChooseBid_NeverSweeps(t *testing.T) {
	trump := card.Spades
	state := &engine.GameState{
		PlayerStates: map[string]*engine.PlayerState{
			"p1": {Hand: []card.Card{
				card.New(card.Spades, card.Ace, 0),
				card.New(card.Spades, card.King, 0),
				card.New(card.Hearts, card.Ace, 0),
			}},
		},
		RoundState: &engine.RoundState{
			RoundSeed: "r0", CardsPerPlayer: 3, TrumpSuit: &trump,
		},
	}
	bid := NewBaseline().ChooseBid(state, "p1")
	if bid < 0 || bid > state.RoundState.CardsPerPlayer-1 {
		t.Fatalf("bid %d out of allowed range [0,%d]", bid, state.RoundState.CardsPerPlayer-1)
	}
}

func TestBaseline_ChoosePlay_LeaderChoosesLegalCard(t *testing.T) {
	g, evs, err := engine.NewGame("g1", engine.Config{SessionSeed: "s", RoundCount: 1, MinPlayers: 2, MaxPlayers: 2}, time.Now())
	if err != nil || len(evs) == 0 {
		t.Fatalf("NewGame: %v", err)
	}
	g, _, _ = engine.AddPlayer(g, "p1", engine.Profile{}, false, false, time.Now())
	g, _, _ = engine.AddPlayer(g, "p2", engine.Profile{}, false, false, time.Now())
	g, _, err = engine.StartRound(g, time.Now())
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	g, _, err = engine.ApplyBid(g, "p1", 0, time.Now())
	if err != nil {
		t.Fatalf("bid p1: %v", err)
	}
	g, _, err = engine.ApplyBid(g, "p2", 0, time.Now())
	if err != nil {
		t.Fatalf("bid p2: %v", err)
	}

	leader := g.RoundState.TrickInProgress.LeaderPlayerID
	cardID := NewBaseline().ChoosePlay(g, leader)
	if cardID == "" {
		t.Fatal("expected a non-empty card choice for the leader")
	}
	legal := engine.LegalCardIDs(g, leader)
	found := false
	for _, id := range legal {
		if id == cardID {
			found = true
		}
	}
	if !found {
		t.Fatalf("chosen card %s is not legal: %v", cardID, legal)
	}
}
