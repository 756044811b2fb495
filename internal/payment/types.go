package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies a configured payment provider family.
type Provider string

const (
	ProviderCard        Provider = "card"
	ProviderWallet      Provider = "wallet"
	ProviderTerminalPOS Provider = "terminal-pos"
)

// Status is the canonical payment status every provider status collapses into.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// MethodType selects between an online tokenized charge and an in-person
// terminal charge.
type MethodType string

const (
	MethodOnline   MethodType = "online"
	MethodTerminal MethodType = "terminal"
)

// CheckoutStatus is the local state of a terminal checkout. Terminal once
// non-pending.
type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutCanceled  CheckoutStatus = "canceled"
	CheckoutFailed    CheckoutStatus = "failed"
)

// Config is the runtime view of a tenant's payment integration. Credentials
// stay encrypted until an adapter needs them for a single call.
type Config struct {
	Provider    Provider          `json:"provider"`
	Enabled     bool              `json:"enabled"`
	Credentials []byte            `json:"-"`
	Settings    map[string]string `json:"settings,omitempty"`
}

// Setting returns a settings value or "" when absent.
func (c *Config) Setting(key string) string {
	if c == nil || c.Settings == nil {
		return ""
	}
	return c.Settings[key]
}

// TestMode reports whether the integration points at the provider sandbox.
func (c *Config) TestMode() bool {
	return c.Setting("testMode") == "true"
}

// ProcessPaymentData is the uniform charge request. Amount is in decimal
// major units (e.g. 19.99 USD); each adapter owns the conversion to its
// provider's native encoding.
type ProcessPaymentData struct {
	InvoiceID      string            `json:"invoiceId"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description,omitempty"`
	CustomerID     string            `json:"customerId,omitempty"`
	MethodType     MethodType        `json:"paymentMethodType,omitempty"`
	SourceID       string            `json:"sourceId,omitempty"`
	DeviceID       string            `json:"deviceId,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ProcessPaymentResult is the canonical charge result.
type ProcessPaymentResult struct {
	TransactionID string            `json:"transactionId"`
	Status        Status            `json:"status"`
	PaymentMethod string            `json:"paymentMethod"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Fee           *decimal.Decimal  `json:"fee,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RefundData requests a refund against a prior transaction. A nil Amount
// means "refund the full captured amount"; the adapter resolves it from the
// original transaction.
type RefundData struct {
	TransactionID  string            `json:"transactionId"`
	Amount         *decimal.Decimal  `json:"amount,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// RefundResult is the canonical refund result.
type RefundResult struct {
	RefundID      string            `json:"refundId"`
	TransactionID string            `json:"transactionId"`
	Status        Status            `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TerminalCheckoutData requests a payment pushed to a physical device.
type TerminalCheckoutData struct {
	InvoiceID      string          `json:"invoiceId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	DeviceID       string          `json:"deviceId"`
	Note           string          `json:"note,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// TerminalCheckout is the state of an in-person checkout pushed to a device.
type TerminalCheckout struct {
	CheckoutID string          `json:"checkoutId"`
	Status     CheckoutStatus  `json:"status"`
	DeviceID   string          `json:"deviceId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
}

// ConnectionTestResult reports whether the stored credentials look usable.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Adapter is the uniform payment capability implemented once per provider.
type Adapter interface {
	// Provider returns the provider identifier this adapter serves.
	Provider() Provider

	// TestConnection validates the integration credentials. Depth is
	// provider-specific: a format check may be enough, or a real probe.
	TestConnection(ctx context.Context, cfg *Config) ConnectionTestResult

	// ProcessPayment charges the given amount through the provider.
	ProcessPayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error)

	// RefundPayment refunds a prior transaction, fully or partially.
	RefundPayment(ctx context.Context, cfg *Config, data RefundData) (*RefundResult, error)
}

// TerminalAdapter is implemented by adapters that can drive physical
// point-of-sale devices.
type TerminalAdapter interface {
	Adapter

	// CreateTerminalCheckout pushes a checkout to a device.
	CreateTerminalCheckout(ctx context.Context, cfg *Config, data TerminalCheckoutData) (*TerminalCheckout, error)

	// GetTerminalCheckoutStatus fetches the current state of a checkout.
	GetTerminalCheckoutStatus(ctx context.Context, cfg *Config, checkoutID string) (*TerminalCheckout, error)
}
