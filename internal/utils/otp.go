package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOTP returns a uniformly random six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ExpiryMillis is now+d as wall-clock epoch milliseconds.
func ExpiryMillis(now time.Time, d time.Duration) int64 {
	return now.Add(d).UnixMilli()
}
