package eventlog

import (
	"testing"
	"time"

	"eldorado/engine"
)

func TestLog_AppendAssignsDenseMonotonicIndex(t *testing.T) {
	l := New("g1")
	now := time.Now()

	first := l.Append([]engine.Event{
		{Type: engine.EventGameCreated},
		{Type: engine.EventPlayerJoined},
	}, now)
	if first[0].EventIndex != 0 || first[1].EventIndex != 1 {
		t.Fatalf("unexpected indices: %d, %d", first[0].EventIndex, first[1].EventIndex)
	}

	second := l.Append([]engine.Event{{Type: engine.EventRoundStarted}}, now)
	if second[0].EventIndex != 2 {
		t.Fatalf("expected index 2, got %d", second[0].EventIndex)
	}

	if l.Len() != 3 {
		t.Fatalf("expected length 3, got %d", l.Len())
	}
	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected snapshot length 3, got %d", len(snap))
	}
	for _, e := range snap {
		if e.GameID != "g1" {
			t.Fatalf("expected gameId g1, got %s", e.GameID)
		}
	}
}
