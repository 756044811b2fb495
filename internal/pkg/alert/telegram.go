// Package alert sends ops notifications for payment failures through the
// Telegram Bot API. A nil or tokenless notifier is a no-op, so callers
// never guard their alert calls.
package alert

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notifier posts messages to a fixed ops chat.
type Notifier struct {
	chatID string
	client *resty.Client
	logger *zap.Logger
}

// New creates a notifier. An empty token disables it.
func New(botToken, chatID string, logger *zap.Logger) *Notifier {
	if botToken == "" || chatID == "" {
		return nil
	}
	// Shares the process default transport, same as the provider clients.
	client := resty.NewWithClient(&http.Client{Transport: http.DefaultTransport}).
		SetBaseURL("https://api.telegram.org/bot" + botToken)

	return &Notifier{
		chatID: chatID,
		client: client,
		logger: logger,
	}
}

// PaymentFailed reports a failed payment operation for a tenant.
func (n *Notifier) PaymentFailed(tenantID, operation string, err error) {
	n.send(fmt.Sprintf("payment %s failed for tenant %s: %v", operation, tenantID, err))
}

// CheckoutStuck reports a terminal checkout that never left pending.
func (n *Notifier) CheckoutStuck(tenantID, checkoutID string) {
	n.send(fmt.Sprintf("terminal checkout %s for tenant %s is stuck pending", checkoutID, tenantID))
}

// CheckoutEnded reports a terminal checkout that ended without payment.
func (n *Notifier) CheckoutEnded(tenantID, checkoutID, status string) {
	n.send(fmt.Sprintf("terminal checkout %s for tenant %s ended %s", checkoutID, tenantID, status))
}

func (n *Notifier) send(text string) {
	if n == nil {
		return
	}
	_, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id": n.chatID,
			"text":    text,
		}).
		Post("/sendMessage")
	if err != nil {
		n.logger.Warn("alert delivery failed", zap.Error(err))
	}
}
