package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "projectpulse-test-secret"

func init() {
	SetJWTSecret(testSecret)
}

// withSecret swaps the signing key for the rest of the test.
func withSecret(t *testing.T, s string) {
	t.Helper()
	SetJWTSecret(s)
	t.Cleanup(func() { SetJWTSecret(testSecret) })
}

func TestAccessTokenRoundTrip(t *testing.T) {
	before := time.Now()
	token, err := GenerateToken(42, "lena", "manager", 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, expected 42", claims.UserID)
	}
	if claims.Username != "lena" {
		t.Errorf("Username = %s, expected lena", claims.Username)
	}
	if claims.Role != "manager" {
		t.Errorf("Role = %s, expected manager", claims.Role)
	}
	if claims.Issuer != "projectpulse" {
		t.Errorf("Issuer = %s, expected projectpulse", claims.Issuer)
	}
	want := before.Add(24 * time.Hour)
	if d := claims.ExpiresAt.Time.Sub(want); d < -time.Minute || d > time.Minute {
		t.Errorf("ExpiresAt = %v, expected about %v", claims.ExpiresAt.Time, want)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(1, "maria", "member", -1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Username: "mallory", Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign alg none: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: 1, Role: "admin"}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign HS512: %v", err)
	}

	tests := map[string]string{
		"empty":          "",
		"not a jwt":      "not.a.token",
		"bad signature":  "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.e30.c2lnbmF0dXJl",
		"expired":        expired,
		"alg none":       unsigned,
		"other hmac alg": hs512,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(token); err == nil {
				t.Error("ParseToken() should fail")
			}
		})
	}
}

func TestParseToken_SecretRotationInvalidatesTokens(t *testing.T) {
	withSecret(t, "before-rotation")
	token, err := GenerateToken(7, "admin", "admin", 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	SetJWTSecret("after-rotation")
	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with the old secret should be rejected")
	}
}
