package payment

import "fmt"

// ConfigurationError means no payment integration exists for the tenant.
type ConfigurationError struct {
	TenantID string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no payment integration configured for tenant %s", e.TenantID)
}

// DisabledIntegrationError means the integration exists but is turned off.
type DisabledIntegrationError struct {
	TenantID string
}

func (e *DisabledIntegrationError) Error() string {
	return fmt.Sprintf("payment integration for tenant %s is disabled", e.TenantID)
}

// UnsupportedProviderError means the configured provider string matches no
// registered adapter.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported payment provider: %s", e.Provider)
}

// CapabilityNotSupportedError means the configured provider does not offer
// the requested operation (e.g. terminal checkout on a card provider).
type CapabilityNotSupportedError struct {
	Provider   Provider
	Capability string
}

func (e *CapabilityNotSupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Capability)
}

// CredentialError means required credential fields are missing or malformed.
// Detected before any network call.
type CredentialError struct {
	Provider Provider
	Reason   string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s credentials invalid: %s", e.Provider, e.Reason)
}

// ProviderCallError wraps a failed or rejected provider call with the
// provider, the operation, and the best human-readable detail extracted
// from the provider's error payload. Raw provider errors never cross the
// adapter boundary.
type ProviderCallError struct {
	Provider Provider
	Op       string
	Detail   string
	Err      error
}

func (e *ProviderCallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Op, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Provider, e.Op)
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

func callError(provider Provider, op, detail string, err error) *ProviderCallError {
	return &ProviderCallError{Provider: provider, Op: op, Detail: detail, Err: err}
}
