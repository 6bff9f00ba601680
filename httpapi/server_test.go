package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eldorado/bot"
	"eldorado/persistence"
	"eldorado/registry"
	"eldorado/tokens"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.New(registry.Dependencies{
		Bots:        bot.NewManager(),
		Persistence: persistence.NewNoop(),
		TurnTimeout: time.Second,
		BotDelay:    time.Millisecond,
	})
	t.Cleanup(reg.Stop)

	signer := tokens.NewSigner("test-secret", time.Hour)
	defaults := RoomDefaults{MinPlayers: 2, MaxPlayers: 4, RoundCount: 3}
	seed := 0
	sessionSeed := func() string {
		seed++
		return "session-seed"
	}
	return NewServer(reg, signer, persistence.NewNoop(), defaults, sessionSeed)
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	r := newTestServer(t).Routes()
	rec := doRequest(r, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleCreateRoom_ReturnsGameIDJoinCodeAndToken(t *testing.T) {
	r := newTestServer(t).Routes()
	rec := doRequest(r, http.MethodPost, "/api/create-room", map[string]any{
		"displayName": "Ada",
		"avatarSeed":  "seed-1",
		"color":       "blue",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["gameId"] == "" || resp["joinCode"] == "" || resp["playerToken"] == "" {
		t.Fatalf("expected gameId/joinCode/playerToken, got %+v", resp)
	}
}

func TestHandleJoinByCode_UnknownCodeReturns404(t *testing.T) {
	r := newTestServer(t).Routes()
	rec := doRequest(r, http.MethodPost, "/api/join-by-code", map[string]any{
		"joinCode":    "ZZZZZZ",
		"displayName": "Ada",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleMatchmake_CreatesRoomAndFillsBots(t *testing.T) {
	r := newTestServer(t).Routes()
	rec := doRequest(r, http.MethodPost, "/api/matchmake", map[string]any{
		"displayName": "Ada",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePlayerStats_RequiresUserID(t *testing.T) {
	r := newTestServer(t).Routes()
	rec := doRequest(r, http.MethodGet, "/api/player-stats", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
