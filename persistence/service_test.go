package persistence

import (
	"testing"

	"eldorado/engine"
)

func TestSummarize_TotalsAndHighestBid(t *testing.T) {
	state := &engine.GameState{
		CumulativeScores: map[string]int{"p1": 10, "p2": 7},
		RoundSummaries: []engine.RoundSummary{
			{
				TricksWon: map[string]int{"p1": 2, "p2": 1},
				Bids:      map[string]int{"p1": 2, "p2": 1},
				Deltas:    map[string]int{"p1": 10, "p2": -3},
			},
			{
				TricksWon: map[string]int{"p1": 1, "p2": 3},
				Bids:      map[string]int{"p1": 1, "p2": 3},
				Deltas:    map[string]int{"p1": -2, "p2": 10},
			},
		},
	}

	summary := Summarize("g1", state, nil)

	if summary.TotalTricks["p1"] != 3 || summary.TotalTricks["p2"] != 4 {
		t.Fatalf("unexpected total tricks: %+v", summary.TotalTricks)
	}
	if summary.HighestBid["p1"] != 2 || summary.HighestBid["p2"] != 3 {
		t.Fatalf("unexpected highest bid: %+v", summary.HighestBid)
	}
	if summary.FinalScores["p1"] != 10 || summary.FinalScores["p2"] != 7 {
		t.Fatalf("unexpected final scores: %+v", summary.FinalScores)
	}
	if len(summary.Winners) != 1 || summary.Winners[0] != "p1" {
		t.Fatalf("expected p1 as sole winner, got %v", summary.Winners)
	}
}

func TestSummarize_StreaksTrackLongestRunsIndependently(t *testing.T) {
	state := &engine.GameState{
		CumulativeScores: map[string]int{"p1": 0, "p2": 0},
		RoundSummaries: []engine.RoundSummary{
			{Deltas: map[string]int{"p1": 5, "p2": -1}},  // p1 win streak 1, p2 loss streak 1
			{Deltas: map[string]int{"p1": 5, "p2": -1}},  // p1 win streak 2, p2 loss streak 2
			{Deltas: map[string]int{"p1": -2, "p2": 5}},  // p1 streak resets, p2 win streak 1
			{Deltas: map[string]int{"p1": 5, "p2": -1}},  // p1 win streak 1 again, p2 loss streak 1
		},
	}

	summary := Summarize("g2", state, nil)

	if summary.LongestWinStreak["p1"] != 2 {
		t.Fatalf("expected p1 longest win streak 2, got %d", summary.LongestWinStreak["p1"])
	}
	if summary.LongestLossStreak["p2"] != 2 {
		t.Fatalf("expected p2 longest loss streak 2, got %d", summary.LongestLossStreak["p2"])
	}
}

func TestSummarize_TiedFinalScoresProduceMultipleWinners(t *testing.T) {
	state := &engine.GameState{
		CumulativeScores: map[string]int{"p1": 12, "p2": 12, "p3": 5},
	}

	summary := Summarize("g3", state, map[string]int{"p3": 2})

	if len(summary.Winners) != 2 {
		t.Fatalf("expected two tied winners, got %v", summary.Winners)
	}
	if summary.MisplayCount["p3"] != 2 {
		t.Fatalf("expected misplay count to pass through, got %+v", summary.MisplayCount)
	}
}

func TestSummarize_NilMisplayCountsDefaultsToEmptyMap(t *testing.T) {
	state := &engine.GameState{CumulativeScores: map[string]int{"p1": 0}}
	summary := Summarize("g4", state, nil)
	if summary.MisplayCount == nil {
		t.Fatal("expected MisplayCount to default to a non-nil empty map")
	}
}
