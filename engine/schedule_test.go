package engine

import "testing"

func TestCardsPerPlayerForRound_Descending(t *testing.T) {
	want := []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	for i, w := range want {
		if got := CardsPerPlayerForRound(10, i); got != w {
			t.Fatalf("round %d: got %d want %d", i, got, w)
		}
	}
}

func TestNumDecksForRound_AddsDeckWhenNeeded(t *testing.T) {
	cases := []struct {
		cardsPerPlayer, numPlayers, want int
	}{
		{10, 4, 1},   // 41 cards needed
		{13, 4, 2},   // 53 cards needed -> second deck
		{10, 8, 2},   // 81 cards needed
	}
	for _, c := range cases {
		if got := NumDecksForRound(c.cardsPerPlayer, c.numPlayers); got != c.want {
			t.Fatalf("cardsPerPlayer=%d numPlayers=%d: got %d want %d", c.cardsPerPlayer, c.numPlayers, got, c.want)
		}
	}
}
