package payment

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyKeyGeneratedWhenAbsent(t *testing.T) {
	key := idempotencyKey("")

	_, err := uuid.Parse(key)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(key), maxIdempotencyKeyLen)
}

func TestIdempotencyKeyPassthrough(t *testing.T) {
	assert.Equal(t, "order-42-attempt-1", idempotencyKey("order-42-attempt-1"))
}

func TestIdempotencyKeyTruncationIsStable(t *testing.T) {
	long := strings.Repeat("k", 60)

	first := idempotencyKey(long)
	second := idempotencyKey(long)

	assert.Len(t, first, maxIdempotencyKeyLen)
	assert.Equal(t, long[:maxIdempotencyKeyLen], first)
	// Retries with the same over-long key must still deduplicate.
	assert.Equal(t, first, second)
}
