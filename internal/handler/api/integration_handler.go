package api

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygate/internal/models"
	"paygate/internal/payment"
	"paygate/internal/pkg/utils"
	"paygate/internal/repository"
	"paygate/internal/vault"
)

var knownProviders = map[payment.Provider]bool{
	payment.ProviderCard:        true,
	payment.ProviderWallet:      true,
	payment.ProviderTerminalPOS: true,
}

// IntegrationHandler manages tenant payment integration configs. It is the
// only surface that encrypts credentials; everything else just decrypts.
type IntegrationHandler struct {
	integrations *repository.IntegrationRepository
	sealer       vault.Encryptor
	logger       *zap.Logger
}

func NewIntegrationHandler(integrations *repository.IntegrationRepository, sealer vault.Encryptor, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations, sealer: sealer, logger: logger}
}

// Upsert handles PUT /api/tenants/:tenant/integration.
func (h *IntegrationHandler) Upsert(c echo.Context) error {
	tenantID := c.Param("tenant")

	var req models.UpsertIntegrationRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if !knownProviders[payment.Provider(req.Provider)] {
		return errorResponse(c, "Unknown provider: "+req.Provider)
	}
	if len(req.Credentials) == 0 {
		return errorResponse(c, "credentials are required")
	}

	blob, err := h.sealer.Encrypt(req.Credentials)
	if err != nil {
		h.logger.Error("credential encryption failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return errorResponse(c, "Failed to store credentials")
	}

	settings := "{}"
	if req.Settings != nil {
		raw, err := json.Marshal(req.Settings)
		if err != nil {
			return errorResponse(c, "Invalid settings")
		}
		settings = string(raw)
	}

	row := &models.PaymentIntegration{
		TenantID:    tenantID,
		Provider:    req.Provider,
		Enabled:     req.Enabled,
		Credentials: blob,
		Settings:    settings,
	}
	if err := h.integrations.Upsert(c.Request().Context(), row); err != nil {
		h.logger.Error("integration upsert failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return errorResponse(c, "Failed to save integration")
	}

	// Echo the stored fields masked so the admin can confirm what was
	// saved without the response ever carrying a usable secret.
	masked := make(map[string]string, len(req.Credentials))
	for field, value := range req.Credentials {
		masked[field] = utils.MaskSecret(value)
	}

	return successResponse(c, "Integration saved", map[string]interface{}{
		"provider":    row.Provider,
		"enabled":     row.Enabled,
		"credentials": masked,
	})
}

// Get handles GET /api/tenants/:tenant/integration. Credentials are never
// returned, not even masked: the blob is opaque by design.
func (h *IntegrationHandler) Get(c echo.Context) error {
	tenantID := c.Param("tenant")

	row, err := h.integrations.FindByTenant(c.Request().Context(), tenantID)
	if err != nil {
		h.logger.Error("integration lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return errorResponse(c, "Failed to load integration")
	}
	if row == nil {
		return errorResponse(c, "No integration configured")
	}

	settings := map[string]string{}
	if row.Settings != "" {
		_ = json.Unmarshal([]byte(row.Settings), &settings)
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"provider": row.Provider,
		"enabled":  row.Enabled,
		"settings": settings,
	})
}

// SetEnabled handles POST /api/tenants/:tenant/integration/enabled.
func (h *IntegrationHandler) SetEnabled(c echo.Context) error {
	tenantID := c.Param("tenant")

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	if err := h.integrations.SetEnabled(c.Request().Context(), tenantID, req.Enabled); err != nil {
		h.logger.Error("integration toggle failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return errorResponse(c, "Failed to update integration")
	}

	return successResponse(c, "Integration updated", map[string]interface{}{
		"enabled": req.Enabled,
	})
}
