package payment

import "github.com/google/uuid"

// maxIdempotencyKeyLen is the strictest key length accepted across the
// providers that require one.
const maxIdempotencyKeyLen = 45

// idempotencyKey returns the caller-supplied key bounded to the provider
// limit, or a fresh UUID when none was supplied. Over-long keys are
// truncated rather than rejected, and the truncation is stable so retries
// with the same input still deduplicate provider-side.
func idempotencyKey(supplied string) string {
	if supplied == "" {
		return uuid.New().String()
	}
	if len(supplied) > maxIdempotencyKeyLen {
		return supplied[:maxIdempotencyKeyLen]
	}
	return supplied
}
