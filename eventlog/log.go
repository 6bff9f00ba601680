// Package eventlog is the Room-owned, in-memory authoritative append log
// (C4 in spec.md §2/§4.4). It assigns the dense, 0-based, monotonic
// eventIndex every engine event is stamped with, and is the short-term
// source of truth; the persistence package durably mirrors it afterward.
package eventlog

import (
	"sync"
	"time"

	"eldorado/engine"
)

// Log is a single game's append-only event sequence. It is exclusive to
// one Room (spec.md §5: "the event log is Room-owned (exclusive writer)"),
// but guards its slice with a mutex anyway so concurrent readers (HTTP
// stats, persistence flush) can safely snapshot it.
type Log struct {
	mu      sync.Mutex
	gameID  string
	entries []engine.Event
}

// New creates an empty log for gameID.
func New(gameID string) *Log {
	return &Log{gameID: gameID}
}

// Append assigns eventIndex and timestamp to each event in order and
// appends them atomically — either all succeed (there is no partial
// append path in the in-memory log; it cannot fail) or, for a durable
// backing store, none do (see persistence.Service.AppendEvents).
func (l *Log) Append(events []engine.Event, now time.Time) []engine.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamped := make([]engine.Event, len(events))
	next := len(l.entries)
	for i, e := range events {
		e.GameID = l.gameID
		e.EventIndex = next
		e.Timestamp = now
		next++
		stamped[i] = e
	}
	l.entries = append(l.entries, stamped...)
	return stamped
}

// Len returns the current eventIndex counter (== number of events so far).
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of every event recorded so far, safe to hand to
// replay.ReplayGame or a persistence flush without holding the log's lock
// during I/O.
func (l *Log) Snapshot() []engine.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]engine.Event, len(l.entries))
	copy(out, l.entries)
	return out
}
