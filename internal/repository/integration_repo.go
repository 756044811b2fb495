package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"paygate/internal/models"
	"paygate/internal/payment"
)

// IntegrationRepository handles payment integration config storage. It
// implements payment.ConfigStore for the router.
type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Get resolves a tenant's integration as a runtime payment config.
// Returns (nil, nil) when no integration exists.
func (r *IntegrationRepository) Get(ctx context.Context, tenantID string) (*payment.Config, error) {
	row, err := r.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	settings := map[string]string{}
	if row.Settings != "" {
		// A corrupt settings blob should not hide the integration; the
		// adapter falls back to defaults.
		_ = json.Unmarshal([]byte(row.Settings), &settings)
	}

	return &payment.Config{
		Provider:    payment.Provider(row.Provider),
		Enabled:     row.Enabled,
		Credentials: row.Credentials,
		Settings:    settings,
	}, nil
}

// FindByTenant returns the raw integration row, or nil when absent.
func (r *IntegrationRepository) FindByTenant(ctx context.Context, tenantID string) (*models.PaymentIntegration, error) {
	var row models.PaymentIntegration
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert creates or replaces a tenant's integration.
func (r *IntegrationRepository) Upsert(ctx context.Context, row *models.PaymentIntegration) error {
	existing, err := r.FindByTenant(ctx, row.TenantID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(row).Error
	}
	row.ID = existing.ID
	return r.db.WithContext(ctx).Save(row).Error
}

// SetEnabled toggles an integration without touching its credentials.
func (r *IntegrationRepository) SetEnabled(ctx context.Context, tenantID string, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntegration{}).
		Where("tenant_id = ?", tenantID).
		Update("enabled", enabled).Error
}
