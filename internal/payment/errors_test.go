package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderCallErrorFormatting(t *testing.T) {
	withDetail := callError(ProviderWallet, "refund", "capture already refunded", nil)
	assert.Equal(t, "wallet refund failed: capture already refunded", withDetail.Error())

	inner := errors.New("connection reset")
	withErr := callError(ProviderCard, "charge", "", inner)
	assert.Equal(t, "card charge failed: connection reset", withErr.Error())
	assert.True(t, errors.Is(withErr, inner))

	bare := callError(ProviderTerminalPOS, "payment", "", nil)
	assert.Equal(t, "terminal-pos payment failed", bare.Error())
}

func TestCapabilityErrorNamesProvider(t *testing.T) {
	err := &CapabilityNotSupportedError{Provider: ProviderCard, Capability: "terminal checkout"}
	assert.Equal(t, `provider "card" does not support terminal checkout`, err.Error())
}
