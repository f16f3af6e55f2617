package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is a signed-in device. The client holds an opaque refresh token;
// only its SHA-256 is stored. Refreshing revokes the session and links it
// to the one that replaced it, so a replayed token is refused.
type Session struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	IP         string     `gorm:"size:64" json:"ip,omitempty"`
	UserAgent  string     `gorm:"size:255" json:"user_agent,omitempty"`
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	ReplacedBy *uint      `json:"replaced_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

// NewSession mints a refresh token for userID and returns it together with
// the unsaved row that stores its hash.
func NewSession(userID uint, ttl time.Duration, ip, userAgent string, now time.Time) (string, *Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, err
	}
	token := hex.EncodeToString(raw)
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}
	return token, &Session{
		UserID:    userID,
		TokenHash: HashSessionToken(token),
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// HashSessionToken is the lookup key for a refresh token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Active reports whether the session can still be refreshed at t.
func (s *Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
