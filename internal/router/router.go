package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paygate/internal/handler"
	"paygate/internal/handler/api"
	"paygate/internal/middleware"
	"paygate/internal/payment"
	"paygate/internal/pkg/alert"
	"paygate/internal/repository"
	"paygate/internal/vault"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	payments *payment.Service,
	sealer vault.Encryptor,
	notifier *alert.Notifier,
	deduper middleware.EventDeduper,
	logger *zap.Logger,
	apiKey string,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	integrations := repository.NewIntegrationRepository(db)
	checkouts := repository.NewCheckoutRepository(db)

	paymentHandler := api.NewPaymentHandler(payments, checkouts, notifier, logger)
	integrationHandler := api.NewIntegrationHandler(integrations, sealer, logger)
	webhookHandler := handler.NewWebhookHandler(checkouts, notifier, logger)

	// Tenant-scoped API, behind the API key
	apiGroup := e.Group("/api", middleware.APIAuth(apiKey))
	tenant := apiGroup.Group("/tenants/:tenant")

	tenant.POST("/payments", paymentHandler.ProcessPayment)
	tenant.GET("/payments/configured", paymentHandler.IsConfigured)
	tenant.POST("/payments/test", paymentHandler.TestConnection)
	tenant.POST("/refunds", paymentHandler.RefundPayment)
	tenant.POST("/terminal-checkouts", paymentHandler.CreateTerminalCheckout)
	tenant.GET("/terminal-checkouts/:id", paymentHandler.GetTerminalCheckoutStatus)

	tenant.GET("/integration", integrationHandler.Get)
	tenant.PUT("/integration", integrationHandler.Upsert)
	tenant.POST("/integration/enabled", integrationHandler.SetEnabled)

	// Provider webhooks, deduped by event id
	webhooks := e.Group("/webhooks", middleware.WebhookEventDedup(deduper))
	webhooks.POST("/terminal-pos", webhookHandler.Terminal)
}
