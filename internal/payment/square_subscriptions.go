package payment

import (
	"context"
	"errors"
)

// Subscription management and saved-card tokenization are offered by the
// terminal-POS provider only and are deliberately not part of the router
// contract; call sites that need them hold the concrete adapter.

// CustomerData describes a provider-side customer profile to create.
type CustomerData struct {
	GivenName    string `json:"givenName,omitempty"`
	FamilyName   string `json:"familyName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	ReferenceID  string `json:"referenceId,omitempty"`
}

// SavedCard is a card stored on file against a provider customer.
type SavedCard struct {
	CardID     string `json:"cardId"`
	CustomerID string `json:"customerId"`
	Brand      string `json:"brand,omitempty"`
	Last4      string `json:"last4,omitempty"`
}

// SubscriptionData describes a recurring-billing subscription to create.
type SubscriptionData struct {
	CustomerID      string `json:"customerId"`
	PlanVariationID string `json:"planVariationId"`
	CardID          string `json:"cardId,omitempty"`
	StartDate       string `json:"startDate,omitempty"`
	LocationID      string `json:"locationId,omitempty"`
}

// SubscriptionUpdate carries the mutable subscription fields.
type SubscriptionUpdate struct {
	PlanVariationID string `json:"planVariationId,omitempty"`
	CardID          string `json:"cardId,omitempty"`
}

// PhaseWindow is the current billing phase window, when the provider
// reports one.
type PhaseWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Subscription is a provider recurring-billing entity. Status stays the
// provider-defined string: callers only branch on "active vs not"
// downstream, so it is not normalized further.
type Subscription struct {
	SubscriptionID string       `json:"subscriptionId"`
	Status         string       `json:"status"`
	PlanID         string       `json:"planId"`
	CustomerID     string       `json:"customerId"`
	CurrentPhase   *PhaseWindow `json:"currentPhase,omitempty"`
}

// CreateCustomer creates a provider customer profile and returns its id.
func (a *TerminalPOSAdapter) CreateCustomer(ctx context.Context, cfg *Config, data CustomerData) (string, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"idempotency_key": idempotencyKey(""),
	}
	if data.GivenName != "" {
		body["given_name"] = data.GivenName
	}
	if data.FamilyName != "" {
		body["family_name"] = data.FamilyName
	}
	if data.EmailAddress != "" {
		body["email_address"] = data.EmailAddress
	}
	if data.ReferenceID != "" {
		body["reference_id"] = data.ReferenceID
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/customers", body)
	if err != nil {
		return "", callError(ProviderTerminalPOS, "create customer", "", err)
	}
	wrapper, err := a.unwrap(resp, "create customer")
	if err != nil {
		return "", err
	}
	customer := getMap(wrapper, "customer")
	if customer == nil {
		return "", callError(ProviderTerminalPOS, "create customer", "no customer in response", nil)
	}
	return getString(customer, "id"), nil
}

// SaveCardForCustomer stores a tokenized card on file for a customer. The
// card token comes from client-side tokenization, same rule as online
// payments: raw card data never passes through here.
func (a *TerminalPOSAdapter) SaveCardForCustomer(ctx context.Context, cfg *Config, customerID, cardToken string) (*SavedCard, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}
	if customerID == "" || cardToken == "" {
		return nil, errors.New("saving a card requires a customerId and a tokenized card")
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/cards", map[string]interface{}{
		"idempotency_key": idempotencyKey(""),
		"source_id":       cardToken,
		"card": map[string]interface{}{
			"customer_id": customerID,
		},
	})
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "save card", "", err)
	}
	wrapper, err := a.unwrap(resp, "save card")
	if err != nil {
		return nil, err
	}
	card := getMap(wrapper, "card")
	if card == nil {
		return nil, callError(ProviderTerminalPOS, "save card", "no card in response", nil)
	}

	return &SavedCard{
		CardID:     getString(card, "id"),
		CustomerID: customerID,
		Brand:      getString(card, "card_brand"),
		Last4:      getString(card, "last_4"),
	}, nil
}

// CreateSubscription starts a recurring subscription for a customer.
func (a *TerminalPOSAdapter) CreateSubscription(ctx context.Context, cfg *Config, data SubscriptionData) (*Subscription, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}
	if data.CustomerID == "" || data.PlanVariationID == "" {
		return nil, errors.New("subscriptions require a customerId and a planVariationId")
	}

	locationID := data.LocationID
	if locationID == "" {
		locationID = cfg.Setting("locationId")
	}

	body := map[string]interface{}{
		"idempotency_key":   idempotencyKey(""),
		"customer_id":       data.CustomerID,
		"plan_variation_id": data.PlanVariationID,
		"location_id":       locationID,
	}
	if data.CardID != "" {
		body["card_id"] = data.CardID
	}
	if data.StartDate != "" {
		body["start_date"] = data.StartDate
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/subscriptions", body)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "create subscription", "", err)
	}
	return a.unwrapSubscription(resp, "create subscription")
}

// UpdateSubscription applies the given changes to a subscription.
func (a *TerminalPOSAdapter) UpdateSubscription(ctx context.Context, cfg *Config, subscriptionID string, update SubscriptionUpdate) (*Subscription, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}

	sub := map[string]interface{}{}
	if update.PlanVariationID != "" {
		sub["plan_variation_id"] = update.PlanVariationID
	}
	if update.CardID != "" {
		sub["card_id"] = update.CardID
	}

	resp, err := a.client(cfg, token).Put(ctx, a.base(cfg)+"/v2/subscriptions/"+subscriptionID, map[string]interface{}{
		"subscription": sub,
	})
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "update subscription", "", err)
	}
	return a.unwrapSubscription(resp, "update subscription")
}

// CancelSubscription cancels a subscription at the provider.
func (a *TerminalPOSAdapter) CancelSubscription(ctx context.Context, cfg *Config, subscriptionID string) (*Subscription, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/subscriptions/"+subscriptionID+"/cancel", nil)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "cancel subscription", "", err)
	}
	return a.unwrapSubscription(resp, "cancel subscription")
}

// GetSubscriptionStatus fetches a subscription's current provider state.
func (a *TerminalPOSAdapter) GetSubscriptionStatus(ctx context.Context, cfg *Config, subscriptionID string) (*Subscription, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}

	resp, err := a.client(cfg, token).Get(ctx, a.base(cfg)+"/v2/subscriptions/"+subscriptionID)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "subscription status", "", err)
	}
	return a.unwrapSubscription(resp, "subscription status")
}

func (a *TerminalPOSAdapter) unwrapSubscription(resp []byte, op string) (*Subscription, error) {
	wrapper, err := a.unwrap(resp, op)
	if err != nil {
		return nil, err
	}
	raw := getMap(wrapper, "subscription")
	if raw == nil {
		return nil, callError(ProviderTerminalPOS, op, "no subscription in response", nil)
	}

	sub := &Subscription{
		SubscriptionID: getString(raw, "id"),
		Status:         getString(raw, "status"),
		PlanID:         getString(raw, "plan_variation_id"),
		CustomerID:     getString(raw, "customer_id"),
	}
	start := getString(raw, "start_date")
	end := getString(raw, "charged_through_date")
	if start != "" || end != "" {
		sub.CurrentPhase = &PhaseWindow{Start: start, End: end}
	}
	return sub, nil
}
