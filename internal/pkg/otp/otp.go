// Package otp generates numeric one-time codes.
package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

// Digits is the fixed width of every generated code.
const Digits = 6

var space = big.NewInt(1_000_000)

// Generate returns a uniformly random 6-digit code and the instant it stops
// being valid, truncated to the second. It fails rather than fall back to a
// weaker source.
func Generate(validity time.Duration, now time.Time) (string, time.Time, error) {
	return generate(rand.Reader, validity, now)
}

func generate(src io.Reader, validity time.Duration, now time.Time) (string, time.Time, error) {
	n, err := rand.Int(src, space)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate one-time code: %w", err)
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), now.Add(validity).Truncate(time.Second), nil
}
