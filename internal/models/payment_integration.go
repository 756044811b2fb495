package models

import "time"

// PaymentIntegration is a tenant's payment provider configuration.
// Credentials are stored as the vault's encrypted blob and only decrypted
// inside an adapter for the duration of a provider call.
type PaymentIntegration struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    string    `gorm:"uniqueIndex;size:64;not null" json:"tenant_id"`
	Provider    string    `gorm:"size:32;not null" json:"provider"`
	Enabled     bool      `gorm:"not null;default:false" json:"enabled"`
	Credentials []byte    `gorm:"type:blob" json:"-"`
	Settings    string    `gorm:"type:text" json:"settings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (PaymentIntegration) TableName() string {
	return "payment_integrations"
}

// TerminalCheckoutRecord tracks terminal checkouts we pushed to devices so
// the reconciler can chase ones that never left pending. The provider stays
// the system of record for payment state; this table only holds references.
type TerminalCheckoutRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   string    `gorm:"index;size:64;not null" json:"tenant_id"`
	CheckoutID string    `gorm:"uniqueIndex;size:128;not null" json:"checkout_id"`
	DeviceID   string    `gorm:"size:128" json:"device_id"`
	InvoiceID  string    `gorm:"size:128" json:"invoice_id"`
	Amount     string    `gorm:"size:32" json:"amount"`
	Currency   string    `gorm:"size:3" json:"currency"`
	Status     string    `gorm:"size:16;index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (TerminalCheckoutRecord) TableName() string {
	return "terminal_checkouts"
}
