package registry

import (
	"testing"
	"time"

	"eldorado/bot"
	"eldorado/engine"
	"eldorado/persistence"
)

func testConfig() engine.Config {
	return engine.Config{SessionSeed: "seed", RoundCount: 1, MinPlayers: 2, MaxPlayers: 4}
}

func newTestRegistry() *Registry {
	return New(Dependencies{
		Bots:        bot.NewManager(),
		Persistence: persistence.NewNoop(),
		TurnTimeout: time.Second,
		BotDelay:    time.Millisecond,
	})
}

func TestRegistry_CreateRoomAllocatesUniqueJoinCode(t *testing.T) {
	reg := newTestRegistry()
	defer reg.Stop()

	gameID1, code1, _, err := reg.CreateRoom(testConfig())
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	gameID2, code2, _, err := reg.CreateRoom(testConfig())
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if gameID1 == gameID2 {
		t.Fatal("expected distinct game ids")
	}
	if code1 == code2 {
		t.Fatal("expected distinct join codes")
	}
	if len(code1) != joinCodeLength {
		t.Fatalf("expected join code length %d, got %q", joinCodeLength, code1)
	}
}

func TestRegistry_ResolveJoinCodeFindsTheRightRoom(t *testing.T) {
	reg := newTestRegistry()
	defer reg.Stop()

	gameID, code, r, err := reg.CreateRoom(testConfig())
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	resolvedGameID, resolvedRoom, err := reg.ResolveJoinCode(code)
	if err != nil {
		t.Fatalf("ResolveJoinCode: %v", err)
	}
	if resolvedGameID != gameID || resolvedRoom != r {
		t.Fatal("resolved room does not match created room")
	}

	if _, _, err := reg.ResolveJoinCode("ZZZZZZ"); err != ErrJoinCodeNotFound {
		t.Fatalf("expected ErrJoinCodeNotFound, got %v", err)
	}
}

func TestRegistry_MatchmakeFillsSeatsWithBots(t *testing.T) {
	reg := newTestRegistry()
	defer reg.Stop()

	gameID, seatIndex, err := reg.Matchmake(testConfig(), "human-1", engine.Profile{DisplayName: "Ada"})
	if err != nil {
		t.Fatalf("Matchmake: %v", err)
	}
	if seatIndex != 0 {
		t.Fatalf("expected the first joiner to take seat 0, got %d", seatIndex)
	}

	r, ok := reg.Get(gameID)
	if !ok {
		t.Fatal("expected the matchmade room to be registered")
	}
	view := r.Snapshot("human-1")
	if len(view.Players) < testConfig().MinPlayers {
		t.Fatalf("expected at least %d seated players, got %d", testConfig().MinPlayers, len(view.Players))
	}
}
