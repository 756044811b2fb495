package payment

import (
	"context"

	"go.uber.org/zap"
)

// ConfigStore resolves a tenant's payment integration config. A (nil, nil)
// return means no integration exists.
type ConfigStore interface {
	Get(ctx context.Context, tenantID string) (*Config, error)
}

// Service routes uniform payment operations to the adapter matching the
// tenant's configured provider. It performs no normalization itself;
// provider-specific logic stays fully contained in adapters, so adding a
// provider only touches the registry.
type Service struct {
	store    ConfigStore
	adapters map[Provider]Adapter
	logger   *zap.Logger
}

// NewService builds the router from explicit adapter instances.
func NewService(store ConfigStore, logger *zap.Logger, adapters ...Adapter) *Service {
	registry := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		registry[a.Provider()] = a
	}
	return &Service{store: store, adapters: registry, logger: logger}
}

// IsConfigured reports whether the tenant has an enabled payment
// integration. Lookup failures are treated as "not configured": this must
// never surface an error to callers.
func (s *Service) IsConfigured(ctx context.Context, tenantID string) bool {
	cfg, err := s.store.Get(ctx, tenantID)
	if err != nil {
		s.logger.Warn("payment config lookup failed, treating as not configured",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return false
	}
	return cfg != nil && cfg.Enabled
}

// TestConnection validates the tenant's stored credentials through the
// configured adapter.
func (s *Service) TestConnection(ctx context.Context, tenantID string) (ConnectionTestResult, error) {
	cfg, adapter, err := s.resolve(ctx, tenantID)
	if err != nil {
		return ConnectionTestResult{}, err
	}
	return adapter.TestConnection(ctx, cfg), nil
}

// ProcessPayment charges through the tenant's configured provider.
func (s *Service) ProcessPayment(ctx context.Context, tenantID string, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	cfg, adapter, err := s.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return adapter.ProcessPayment(ctx, cfg, data)
}

// RefundPayment refunds through the tenant's configured provider.
func (s *Service) RefundPayment(ctx context.Context, tenantID string, data RefundData) (*RefundResult, error) {
	cfg, adapter, err := s.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return adapter.RefundPayment(ctx, cfg, data)
}

// CreateTerminalCheckout pushes an in-person checkout to a device. Only
// providers implementing TerminalAdapter support this.
func (s *Service) CreateTerminalCheckout(ctx context.Context, tenantID string, data TerminalCheckoutData) (*TerminalCheckout, error) {
	cfg, adapter, err := s.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	terminal, ok := adapter.(TerminalAdapter)
	if !ok {
		return nil, &CapabilityNotSupportedError{Provider: cfg.Provider, Capability: "terminal checkout"}
	}
	return terminal.CreateTerminalCheckout(ctx, cfg, data)
}

// GetTerminalCheckoutStatus fetches a terminal checkout's current state.
func (s *Service) GetTerminalCheckoutStatus(ctx context.Context, tenantID, checkoutID string) (*TerminalCheckout, error) {
	cfg, adapter, err := s.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	terminal, ok := adapter.(TerminalAdapter)
	if !ok {
		return nil, &CapabilityNotSupportedError{Provider: cfg.Provider, Capability: "terminal checkout"}
	}
	return terminal.GetTerminalCheckoutStatus(ctx, cfg, checkoutID)
}

func (s *Service) resolve(ctx context.Context, tenantID string) (*Config, Adapter, error) {
	cfg, err := s.store.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		if err != nil {
			s.logger.Error("payment config lookup failed",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return nil, nil, &ConfigurationError{TenantID: tenantID}
	}
	if !cfg.Enabled {
		return nil, nil, &DisabledIntegrationError{TenantID: tenantID}
	}
	adapter, ok := s.adapters[cfg.Provider]
	if !ok {
		return nil, nil, &UnsupportedProviderError{Provider: string(cfg.Provider)}
	}
	return cfg, adapter, nil
}
