package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygate/internal/pkg/alert"
	"paygate/internal/repository"
)

// WebhookHandler ingests provider event notifications. The provider is the
// system of record for payment state; webhooks only refresh our terminal
// checkout tracking rows and raise ops alerts. Each endpoint sits behind
// the event-id dedup middleware.
type WebhookHandler struct {
	checkouts *repository.CheckoutRepository
	notifier  *alert.Notifier
	logger    *zap.Logger
}

func NewWebhookHandler(checkouts *repository.CheckoutRepository, notifier *alert.Notifier, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{checkouts: checkouts, notifier: notifier, logger: logger}
}

type terminalEvent struct {
	EventID string `json:"event_id"`
	ID      string `json:"id"`
	Type    string `json:"type"`
	Data    struct {
		Object struct {
			Checkout struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"checkout"`
		} `json:"object"`
	} `json:"data"`
}

// Terminal handles terminal-POS provider events
// (POST /webhooks/terminal-pos).
func (h *WebhookHandler) Terminal(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	var event terminalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("unparseable terminal webhook", zap.Error(err))
		// Ack anyway: the provider retries until it gets a 2xx, and a
		// malformed event will not improve on redelivery.
		return c.NoContent(http.StatusOK)
	}

	if !strings.HasPrefix(event.Type, "terminal.checkout") || event.Data.Object.Checkout.ID == "" {
		return c.NoContent(http.StatusOK)
	}

	checkoutID := event.Data.Object.Checkout.ID
	status := localCheckoutStatus(event.Data.Object.Checkout.Status)

	ctx := c.Request().Context()
	record, err := h.checkouts.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		h.logger.Error("checkout lookup failed", zap.String("checkout_id", checkoutID), zap.Error(err))
		return c.NoContent(http.StatusOK)
	}
	if record == nil {
		h.logger.Debug("webhook for untracked checkout", zap.String("checkout_id", checkoutID))
		return c.NoContent(http.StatusOK)
	}

	if err := h.checkouts.UpdateStatus(ctx, checkoutID, status); err != nil {
		h.logger.Error("checkout update failed", zap.String("checkout_id", checkoutID), zap.Error(err))
		return c.NoContent(http.StatusOK)
	}

	h.logger.Info("terminal checkout updated by webhook",
		zap.String("checkout_id", checkoutID),
		zap.String("status", status))

	if status == "failed" || status == "canceled" {
		h.notifier.CheckoutEnded(record.TenantID, checkoutID, status)
	}

	return c.NoContent(http.StatusOK)
}

// localCheckoutStatus mirrors the adapter's status table for webhook
// payloads; unknown provider statuses stay pending.
func localCheckoutStatus(provider string) string {
	switch provider {
	case "COMPLETED":
		return "completed"
	case "CANCELED":
		return "canceled"
	case "FAILED":
		return "failed"
	default:
		return "pending"
	}
}
