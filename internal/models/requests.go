package models

import "github.com/shopspring/decimal"

// --- Payment API request payloads ---

type ProcessPaymentRequest struct {
	InvoiceID         string            `json:"invoice_id"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	Description       string            `json:"description,omitempty"`
	CustomerID        string            `json:"customer_id,omitempty"`
	PaymentMethodType string            `json:"payment_method_type,omitempty"`
	SourceID          string            `json:"source_id,omitempty"`
	DeviceID          string            `json:"device_id,omitempty"`
	IdempotencyKey    string            `json:"idempotency_key,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type RefundPaymentRequest struct {
	TransactionID  string            `json:"transaction_id"`
	Amount         *decimal.Decimal  `json:"amount,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type TerminalCheckoutRequest struct {
	InvoiceID      string          `json:"invoice_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	DeviceID       string          `json:"device_id"`
	Note           string          `json:"note,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// --- Integration management payloads ---

type UpsertIntegrationRequest struct {
	Provider    string            `json:"provider"`
	Enabled     bool              `json:"enabled"`
	Credentials map[string]string `json:"credentials"`
	Settings    map[string]string `json:"settings,omitempty"`
}
