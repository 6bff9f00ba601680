package card

// Deck is a mutable pile of cards, dealt from the top (start of slice) down,
// mirroring the teacher's CardList stock-pile idiom.
type Deck []Card

// NewDeck builds numDecks full 52-card decks, each card tagged with its
// originating deckIndex (0-based), suits and ranks in a fixed, deterministic
// order so that Shuffle (caller-driven, seeded) is the only source of
// randomness.
func NewDeck(numDecks int) Deck {
	d := make(Deck, 0, 52*numDecks)
	for deckIndex := 0; deckIndex < numDecks; deckIndex++ {
		for _, suit := range AllSuits() {
			for _, rank := range AllRanks() {
				d = append(d, New(suit, rank, deckIndex))
			}
		}
	}
	return d
}

// Count returns the number of cards remaining.
func (d Deck) Count() int {
	return len(d)
}

// PopCards removes and returns the top size cards (ordered as they appear
// at the head of the pile after shuffling).
func (d *Deck) PopCards(size int) ([]Card, bool) {
	if size > d.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*d)[:size])
	*d = (*d)[size:]
	return cards, true
}

// PopCard removes and returns the single top card, or false if empty.
func (d *Deck) PopCard() (Card, bool) {
	if d.Count() == 0 {
		return Card{}, false
	}
	c := (*d)[0]
	*d = (*d)[1:]
	return c, true
}
