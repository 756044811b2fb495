package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"paygate/internal/models"
)

// CheckoutRepository tracks terminal checkouts for reconciliation.
type CheckoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Create records a checkout we pushed to a device.
func (r *CheckoutRepository) Create(ctx context.Context, record *models.TerminalCheckoutRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByCheckoutID returns a tracked checkout, or nil when unknown.
func (r *CheckoutRepository) FindByCheckoutID(ctx context.Context, checkoutID string) (*models.TerminalCheckoutRecord, error) {
	var record models.TerminalCheckoutRecord
	err := r.db.WithContext(ctx).Where("checkout_id = ?", checkoutID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindPending returns pending checkouts created before the cutoff, oldest
// first, bounded by limit.
func (r *CheckoutRepository) FindPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.TerminalCheckoutRecord, error) {
	var records []models.TerminalCheckoutRecord
	cutoff := time.Now().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", "pending", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// UpdateStatus moves a tracked checkout to a new local status.
func (r *CheckoutRepository) UpdateStatus(ctx context.Context, checkoutID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.TerminalCheckoutRecord{}).
		Where("checkout_id = ?", checkoutID).
		Update("status", status).Error
}
