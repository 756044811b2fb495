package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateReferenceID generates a unique reference for payment records.
func GenerateReferenceID() string {
	return fmt.Sprintf("PAY-%d-%s", time.Now().UnixMilli(), RandomHex(4))
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// MaskSecret hides all but the last four characters of a secret for
// display in admin responses.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
