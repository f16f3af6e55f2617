package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/projectpulse/backend/internal/models"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	token, s, err := models.NewSession(5, time.Hour, "10.0.0.9", strings.Repeat("a", 300), now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if len(token) != 64 {
		t.Errorf("token length = %d, expected 64", len(token))
	}
	if s.TokenHash != models.HashSessionToken(token) {
		t.Error("TokenHash does not match the token")
	}
	if s.TokenHash == token {
		t.Error("the raw token must not be stored")
	}
	if s.UserID != 5 {
		t.Errorf("UserID = %d, expected 5", s.UserID)
	}
	if len(s.UserAgent) != 255 {
		t.Errorf("UserAgent length = %d, expected 255", len(s.UserAgent))
	}
	if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, expected %v", s.ExpiresAt, now.Add(time.Hour))
	}

	other, _, err := models.NewSession(5, time.Hour, "", "", now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if other == token {
		t.Error("two sessions got the same token")
	}
}

func TestSessionActive(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	s := models.Session{ExpiresAt: now.Add(time.Minute)}

	if !s.Active(now) {
		t.Error("fresh session should be active")
	}
	if s.Active(now.Add(time.Minute)) {
		t.Error("expiry instant is already inactive")
	}

	s.RevokedAt = &now
	if s.Active(now) {
		t.Error("revoked session should be inactive")
	}
}
