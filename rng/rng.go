// Package rng provides the deterministic seeded generator the engine and
// replay rely on for byte-identical reproduction across platforms.
package rng

import (
	"hash/fnv"
	"math/rand"
	"strconv"

	"eldorado/card"
)

// splitMix64 is a minimal, allocation-free SplitMix64 generator. It is the
// engine's actual entropy source; math/rand.Rand wraps it only to get the
// Shuffle/Intn convenience methods, matching the teacher's own use of
// rand.New(rand.NewSource(seed)) in holdem/game.go.
type splitMix64 struct {
	state uint64
}

func (s *splitMix64) Seed(seed int64) {
	s.state = uint64(seed)
}

func (s *splitMix64) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (s *splitMix64) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// FNVSeed folds a UTF-8 seed string down to a 64-bit integer using FNV-1a,
// as specified: "SplitMix64 seeded by FNV-1a of the seed bytes."
func FNVSeed(seed string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int64(h.Sum64())
}

// New returns a *rand.Rand deterministically derived from a UTF-8 seed
// string. Two calls with the same seed, on any platform, produce the same
// sequence of draws — required for Scenario A/F byte-identical replay.
func New(seed string) *rand.Rand {
	src := &splitMix64{}
	src.Seed(FNVSeed(seed))
	return rand.New(src)
}

// RoundSeed derives the per-round seed per spec §4.1: sessionSeed + ":" + roundIndex.
func RoundSeed(sessionSeed string, roundIndex int) string {
	return sessionSeed + ":" + strconv.Itoa(roundIndex)
}

// ShuffleDeck performs a seeded Fisher-Yates shuffle in place, using r's
// Shuffle (itself backed by the SplitMix64 source above).
func ShuffleDeck(r *rand.Rand, deck card.Deck) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
