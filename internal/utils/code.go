package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Ambiguous glyphs (0/O, 1/I) are left out so codes can be read aloud.
const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const OrderCodeLength = 8

// GenerateOrderCode returns a short human-facing order code.
func GenerateOrderCode() string {
	max := big.NewInt(int64(len(orderCodeAlphabet)))
	code := make([]byte, OrderCodeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// fallback: time-based entropy
			n = big.NewInt((time.Now().UnixNano() + int64(i)*7919) % int64(len(orderCodeAlphabet)))
		}
		code[i] = orderCodeAlphabet[n.Int64()]
	}

	return string(code)
}
