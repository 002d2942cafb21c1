package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns the food seed for a date: first 8 bytes of HMAC-SHA256(salt, YYYY-MM-DD).
// Everyone playing the daily game on the same date gets the same food sequence
// for the same moves.
func Seed(date time.Time, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// SeedFunc adapts Seed to session options; the date is fixed when the game is created.
func SeedFunc(date time.Time, salt string) func() uint64 {
	seed := Seed(date, salt)
	return func() uint64 { return seed }
}
