package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygate/internal/models"
	"paygate/internal/payment"
	"paygate/internal/pkg/alert"
	"paygate/internal/pkg/utils"
	"paygate/internal/repository"
)

// PaymentHandler exposes the payment router over HTTP, keyed by tenant.
type PaymentHandler struct {
	payments  *payment.Service
	checkouts *repository.CheckoutRepository
	notifier  *alert.Notifier
	logger    *zap.Logger
}

func NewPaymentHandler(payments *payment.Service, checkouts *repository.CheckoutRepository, notifier *alert.Notifier, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, checkouts: checkouts, notifier: notifier, logger: logger}
}

// ProcessPayment handles POST /api/tenants/:tenant/payments.
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	tenantID := c.Param("tenant")

	var req models.ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.InvoiceID == "" {
		// Every payment carries a reference for provider-side search and
		// reconciliation, even when the caller did not supply an invoice.
		req.InvoiceID = utils.GenerateReferenceID()
	}

	result, err := h.payments.ProcessPayment(c.Request().Context(), tenantID, payment.ProcessPaymentData{
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		CustomerID:     req.CustomerID,
		MethodType:     payment.MethodType(req.PaymentMethodType),
		SourceID:       req.SourceID,
		DeviceID:       req.DeviceID,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.logger.Error("process payment failed",
			zap.String("tenant_id", tenantID),
			zap.String("invoice_id", req.InvoiceID),
			zap.Error(err))
		h.notifier.PaymentFailed(tenantID, "charge", err)
		return errorResponse(c, err.Error())
	}

	return successResponse(c, "Payment processed", result)
}

// RefundPayment handles POST /api/tenants/:tenant/refunds.
func (h *PaymentHandler) RefundPayment(c echo.Context) error {
	tenantID := c.Param("tenant")

	var req models.RefundPaymentRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.TransactionID == "" {
		return errorResponse(c, "transaction_id is required")
	}

	result, err := h.payments.RefundPayment(c.Request().Context(), tenantID, payment.RefundData{
		TransactionID:  req.TransactionID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.logger.Error("refund failed",
			zap.String("tenant_id", tenantID),
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		h.notifier.PaymentFailed(tenantID, "refund", err)
		return errorResponse(c, err.Error())
	}

	return successResponse(c, "Refund processed", result)
}

// CreateTerminalCheckout handles POST /api/tenants/:tenant/terminal-checkouts.
func (h *PaymentHandler) CreateTerminalCheckout(c echo.Context) error {
	tenantID := c.Param("tenant")

	var req models.TerminalCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.DeviceID == "" {
		return errorResponse(c, "device_id is required")
	}
	if req.InvoiceID == "" {
		req.InvoiceID = utils.GenerateReferenceID()
	}

	checkout, err := h.payments.CreateTerminalCheckout(c.Request().Context(), tenantID, payment.TerminalCheckoutData{
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		DeviceID:       req.DeviceID,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.logger.Error("terminal checkout failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return errorResponse(c, err.Error())
	}

	record := &models.TerminalCheckoutRecord{
		TenantID:   tenantID,
		CheckoutID: checkout.CheckoutID,
		DeviceID:   checkout.DeviceID,
		InvoiceID:  req.InvoiceID,
		Amount:     req.Amount.StringFixed(2),
		Currency:   checkout.Currency,
		Status:     string(checkout.Status),
	}
	if err := h.checkouts.Create(c.Request().Context(), record); err != nil {
		// The checkout exists at the provider; losing the tracking row only
		// costs reconciliation, not money.
		h.logger.Warn("failed to record terminal checkout",
			zap.String("checkout_id", checkout.CheckoutID),
			zap.Error(err))
	}

	return successResponse(c, "Terminal checkout created", checkout)
}

// GetTerminalCheckoutStatus handles GET /api/tenants/:tenant/terminal-checkouts/:id.
func (h *PaymentHandler) GetTerminalCheckoutStatus(c echo.Context) error {
	tenantID := c.Param("tenant")
	checkoutID := c.Param("id")

	checkout, err := h.payments.GetTerminalCheckoutStatus(c.Request().Context(), tenantID, checkoutID)
	if err != nil {
		h.logger.Error("terminal checkout status failed",
			zap.String("tenant_id", tenantID),
			zap.String("checkout_id", checkoutID),
			zap.Error(err))
		return errorResponse(c, err.Error())
	}

	if err := h.checkouts.UpdateStatus(c.Request().Context(), checkoutID, string(checkout.Status)); err != nil {
		h.logger.Warn("failed to update checkout record",
			zap.String("checkout_id", checkoutID),
			zap.Error(err))
	}

	return successResponse(c, "Successful", checkout)
}

// IsConfigured handles GET /api/tenants/:tenant/payments/configured.
func (h *PaymentHandler) IsConfigured(c echo.Context) error {
	tenantID := c.Param("tenant")
	configured := h.payments.IsConfigured(c.Request().Context(), tenantID)
	return successResponse(c, "Successful", map[string]interface{}{
		"configured": configured,
	})
}

// TestConnection handles POST /api/tenants/:tenant/payments/test.
func (h *PaymentHandler) TestConnection(c echo.Context) error {
	tenantID := c.Param("tenant")

	result, err := h.payments.TestConnection(c.Request().Context(), tenantID)
	if err != nil {
		return errorResponse(c, err.Error())
	}
	return successResponse(c, "Successful", result)
}
