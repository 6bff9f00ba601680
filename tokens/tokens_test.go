package tokens

import (
	"strings"
	"testing"
	"time"
)

func TestSigner_IssueThenVerifyRoundTrips(t *testing.T) {
	signer := NewSigner("shh", time.Hour)
	now := time.Now()
	seat := 2
	tok, err := signer.Issue("p1", "g1", &seat, false, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	playerID, gameID, err := signer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if playerID != "p1" || gameID != "g1" {
		t.Fatalf("unexpected claims: playerID=%s gameID=%s", playerID, gameID)
	}

	claims, err := signer.ParseClaims(tok)
	if err != nil {
		t.Fatalf("ParseClaims: %v", err)
	}
	if claims.SeatIndex == nil || *claims.SeatIndex != 2 {
		t.Fatalf("expected seat index 2, got %v", claims.SeatIndex)
	}
}

func TestSigner_RejectsTamperedBody(t *testing.T) {
	signer := NewSigner("shh", time.Hour)
	tok, _ := signer.Issue("p1", "g1", nil, false, time.Now())
	parts := strings.SplitN(tok, ".", 2)
	tampered := parts[0] + "x." + parts[1]

	if _, _, err := signer.Verify(tampered); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestSigner_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	a := NewSigner("secret-a", time.Hour)
	b := NewSigner("secret-b", time.Hour)
	tok, _ := a.Issue("p1", "g1", nil, false, time.Now())

	if _, _, err := b.Verify(tok); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature across secrets, got %v", err)
	}
}

func TestSigner_RejectsExpiredToken(t *testing.T) {
	signer := NewSigner("shh", time.Hour)
	past := time.Now().Add(-2 * time.Hour)
	tok, _ := signer.Issue("p1", "g1", nil, false, past)

	if _, _, err := signer.Verify(tok); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}
