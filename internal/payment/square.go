package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"paygate/internal/pkg/httpclient"
	"paygate/internal/vault"
)

const (
	terminalLiveBase    = "https://connect.squareup.com"
	terminalSandboxBase = "https://connect.squareupsandbox.com"
	terminalAPIVersion  = "2024-01-18"
)

const minTerminalCredentialLen = 10

// terminalCheckoutStatuses maps every provider checkout status the adapter
// knows onto the four local states. Anything outside the table falls back
// to pending, never to completed.
var terminalCheckoutStatuses = map[string]CheckoutStatus{
	"PENDING":          CheckoutPending,
	"IN_PROGRESS":      CheckoutPending,
	"CANCEL_REQUESTED": CheckoutPending,
	"CANCELED":         CheckoutCanceled,
	"COMPLETED":        CheckoutCompleted,
	"FAILED":           CheckoutFailed,
}

func mapCheckoutStatus(provider string) CheckoutStatus {
	if status, ok := terminalCheckoutStatuses[provider]; ok {
		return status
	}
	return CheckoutPending
}

// TerminalPOSAdapter drives a Square-style point-of-sale processor. Beyond
// the uniform contract it manages terminal checkouts, customers, saved
// cards, and subscriptions; the extra surface is reachable only through
// this concrete type, not the router.
//
// Amounts go over the wire as int64 minor units, the third encoding next
// to the card adapter's int cents and the wallet adapter's decimal strings.
type TerminalPOSAdapter struct {
	vault vault.Decryptor
}

func NewTerminalPOSAdapter(v vault.Decryptor) *TerminalPOSAdapter {
	return &TerminalPOSAdapter{vault: v}
}

func (a *TerminalPOSAdapter) Provider() Provider {
	return ProviderTerminalPOS
}

func (a *TerminalPOSAdapter) base(cfg *Config) string {
	if cfg.TestMode() {
		return terminalSandboxBase
	}
	return terminalLiveBase
}

func (a *TerminalPOSAdapter) accessToken(cfg *Config) (string, error) {
	fields, err := a.vault.Decrypt(cfg.Credentials)
	if err != nil {
		return "", &CredentialError{Provider: ProviderTerminalPOS, Reason: "credential decryption failed"}
	}
	token := fields["accessToken"]
	if len(token) < minTerminalCredentialLen {
		return "", &CredentialError{Provider: ProviderTerminalPOS, Reason: "accessToken is required"}
	}
	return token, nil
}

func (a *TerminalPOSAdapter) client(cfg *Config, token string) *httpclient.Client {
	return httpclient.New().
		WithBearerToken(token).
		WithHeader("Square-Version", terminalAPIVersion)
}

// TestConnection probes the merchant listing endpoint, falling back to the
// location listing when that fails: the primary probe's OAuth scope is not
// guaranteed on all accounts. When the failure looks like an authorization
// problem the error accumulates scope guidance.
func (a *TerminalPOSAdapter) TestConnection(ctx context.Context, cfg *Config) ConnectionTestResult {
	token, err := a.accessToken(cfg)
	if err != nil {
		return ConnectionTestResult{Success: false, Error: "Invalid terminal-pos credentials format"}
	}

	client := a.client(cfg, token)

	primaryErr := a.probe(ctx, client, a.base(cfg)+"/v2/merchants", "merchant listing")
	if primaryErr == nil {
		return ConnectionTestResult{Success: true}
	}

	fallbackErr := a.probe(ctx, client, a.base(cfg)+"/v2/locations", "location listing")
	if fallbackErr == nil {
		return ConnectionTestResult{Success: true}
	}

	msg := primaryErr.Error() + "; fallback: " + fallbackErr.Error()
	if strings.Contains(strings.ToLower(msg), "authorized") {
		msg += "; check that the access token grants the MERCHANT_PROFILE_READ scope, or issue a token that can at least list locations"
	}
	return ConnectionTestResult{Success: false, Error: msg}
}

func (a *TerminalPOSAdapter) probe(ctx context.Context, client *httpclient.Client, url, op string) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return callError(ProviderTerminalPOS, op, "", err)
	}
	_, err = a.unwrap(resp, op)
	return err
}

// ProcessPayment branches on the payment method type: "online" charges a
// tokenized source directly, "terminal" pushes a checkout to a physical
// device and reports it as pending (completion arrives out-of-band).
func (a *TerminalPOSAdapter) ProcessPayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	if data.MethodType == MethodTerminal {
		return a.processTerminalPayment(ctx, cfg, data)
	}
	return a.processOnlinePayment(ctx, cfg, data)
}

func (a *TerminalPOSAdapter) processOnlinePayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}
	if data.SourceID == "" {
		return nil, errors.New("terminal-pos online payments require a tokenized sourceId: tokenize the card with the provider's Web Payments SDK in the browser and send the resulting token")
	}

	body := map[string]interface{}{
		"source_id":       data.SourceID,
		"idempotency_key": idempotencyKey(data.IdempotencyKey),
		"amount_money": map[string]interface{}{
			"amount":   toMinorUnits(data.Amount),
			"currency": strings.ToUpper(data.Currency),
		},
	}
	if data.InvoiceID != "" {
		body["reference_id"] = data.InvoiceID
	}
	if data.Description != "" {
		body["note"] = data.Description
	}
	if data.CustomerID != "" {
		body["customer_id"] = data.CustomerID
	}
	if locationID := cfg.Setting("locationId"); locationID != "" {
		body["location_id"] = locationID
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/payments", body)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "payment", "", err)
	}
	wrapper, err := a.unwrap(resp, "payment")
	if err != nil {
		return nil, err
	}
	pay := getMap(wrapper, "payment")
	if pay == nil {
		return nil, callError(ProviderTerminalPOS, "payment", "no payment in response", nil)
	}

	result := &ProcessPaymentResult{
		TransactionID: getString(pay, "id"),
		Status:        terminalPaymentStatus(getString(pay, "status")),
		PaymentMethod: "card",
		Amount:        data.Amount,
		Currency:      strings.ToUpper(data.Currency),
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"payment_id": getString(pay, "id"),
		}),
	}

	if fees := getSlice(pay, "processing_fee"); len(fees) > 0 {
		total := int64(0)
		for _, f := range fees {
			if fm, ok := f.(map[string]interface{}); ok {
				if money := getMap(fm, "amount_money"); money != nil {
					if cents, ok := getFloat(money, "amount"); ok {
						total += int64(cents)
					}
				}
			}
		}
		fee := fromMinorUnits(total)
		result.Fee = &fee
	}

	return result, nil
}

func (a *TerminalPOSAdapter) processTerminalPayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	if data.DeviceID == "" {
		return nil, errors.New("terminal payments require a deviceId identifying the paired point-of-sale device")
	}

	checkout, err := a.CreateTerminalCheckout(ctx, cfg, TerminalCheckoutData{
		InvoiceID:      data.InvoiceID,
		Amount:         data.Amount,
		Currency:       data.Currency,
		DeviceID:       data.DeviceID,
		Note:           data.Description,
		IdempotencyKey: data.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return &ProcessPaymentResult{
		TransactionID: checkout.CheckoutID,
		Status:        statusFromCheckout(checkout.Status),
		PaymentMethod: "terminal",
		Amount:        data.Amount,
		Currency:      strings.ToUpper(data.Currency),
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"checkout_id": checkout.CheckoutID,
			"device_id":   data.DeviceID,
		}),
	}, nil
}

// RefundPayment refunds a payment; with no amount given the original
// payment is fetched and its full amount refunded. Refunds always mint
// their own idempotency key.
func (a *TerminalPOSAdapter) RefundPayment(ctx context.Context, cfg *Config, data RefundData) (*RefundResult, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}
	if data.TransactionID == "" {
		return nil, errors.New("terminal-pos refunds require the original transactionId")
	}

	client := a.client(cfg, token)

	// The original payment is always fetched: it is the source of truth for
	// the currency, and for the full captured amount when none was given.
	resp, err := client.Get(ctx, a.base(cfg)+"/v2/payments/"+data.TransactionID)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "payment lookup", "", err)
	}
	wrapper, err := a.unwrap(resp, "payment lookup")
	if err != nil {
		return nil, err
	}
	pay := getMap(wrapper, "payment")
	if pay == nil {
		return nil, callError(ProviderTerminalPOS, "payment lookup", "no payment in response", nil)
	}

	currency := ""
	refundCents := int64(0)
	if data.Amount != nil {
		refundCents = toMinorUnits(*data.Amount)
	}
	if money := getMap(pay, "amount_money"); money != nil {
		currency = getString(money, "currency")
		if data.Amount == nil {
			if cents, ok := getFloat(money, "amount"); ok {
				refundCents = int64(cents)
			}
		}
	}

	body := map[string]interface{}{
		"idempotency_key": idempotencyKey(data.IdempotencyKey),
		"payment_id":      data.TransactionID,
		"amount_money": map[string]interface{}{
			"amount":   refundCents,
			"currency": currency,
		},
	}
	if data.Reason != "" {
		body["reason"] = data.Reason
	}

	resp, err = client.Post(ctx, a.base(cfg)+"/v2/refunds", body)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "refund", "", err)
	}
	wrapper, err = a.unwrap(resp, "refund")
	if err != nil {
		return nil, err
	}
	refund := getMap(wrapper, "refund")
	if refund == nil {
		return nil, callError(ProviderTerminalPOS, "refund", "no refund in response", nil)
	}

	return &RefundResult{
		RefundID:      getString(refund, "id"),
		TransactionID: data.TransactionID,
		Status:        terminalRefundStatus(getString(refund, "status")),
		Amount:        fromMinorUnits(refundCents),
		Currency:      currency,
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"refund_id": getString(refund, "id"),
		}),
	}, nil
}

// CreateTerminalCheckout pushes a tap/chip/swipe request to a device.
func (a *TerminalPOSAdapter) CreateTerminalCheckout(ctx context.Context, cfg *Config, data TerminalCheckoutData) (*TerminalCheckout, error) {
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}
	if data.DeviceID == "" {
		return nil, errors.New("terminal checkouts require a deviceId")
	}

	checkout := map[string]interface{}{
		"amount_money": map[string]interface{}{
			"amount":   toMinorUnits(data.Amount),
			"currency": strings.ToUpper(data.Currency),
		},
		"device_options": map[string]interface{}{
			"device_id": data.DeviceID,
		},
	}
	if data.InvoiceID != "" {
		checkout["reference_id"] = data.InvoiceID
	}
	if data.Note != "" {
		checkout["note"] = data.Note
	}

	resp, err := a.client(cfg, token).Post(ctx, a.base(cfg)+"/v2/terminals/checkouts", map[string]interface{}{
		"idempotency_key": idempotencyKey(data.IdempotencyKey),
		"checkout":        checkout,
	})
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "create terminal checkout", "", err)
	}
	wrapper, err := a.unwrap(resp, "create terminal checkout")
	if err != nil {
		return nil, err
	}
	return a.parseCheckout(wrapper, "create terminal checkout")
}

// GetTerminalCheckoutStatus fetches a checkout's current state.
func (a *TerminalPOSAdapter) GetTerminalCheckoutStatus(ctx context.Context, cfg *Config, checkoutID string) (*TerminalCheckout, error) {
	if checkoutID == "" {
		// An empty id would hit the checkout list endpoint instead.
		return nil, errors.New("terminal checkout status requires a checkoutId")
	}
	token, err := a.accessToken(cfg)
	if err != nil {
		return nil, err
	}

	resp, err := a.client(cfg, token).Get(ctx, a.base(cfg)+"/v2/terminals/checkouts/"+checkoutID)
	if err != nil {
		return nil, callError(ProviderTerminalPOS, "terminal checkout status", "", err)
	}
	wrapper, err := a.unwrap(resp, "terminal checkout status")
	if err != nil {
		return nil, err
	}
	return a.parseCheckout(wrapper, "terminal checkout status")
}

func (a *TerminalPOSAdapter) parseCheckout(wrapper map[string]interface{}, op string) (*TerminalCheckout, error) {
	raw := getMap(wrapper, "checkout")
	if raw == nil {
		return nil, callError(ProviderTerminalPOS, op, "no checkout in response", nil)
	}

	checkout := &TerminalCheckout{
		CheckoutID: getString(raw, "id"),
		Status:     mapCheckoutStatus(getString(raw, "status")),
	}
	if options := getMap(raw, "device_options"); options != nil {
		checkout.DeviceID = getString(options, "device_id")
	}
	if money := getMap(raw, "amount_money"); money != nil {
		if cents, ok := getFloat(money, "amount"); ok {
			checkout.Amount = fromMinorUnits(int64(cents))
		}
		checkout.Currency = getString(money, "currency")
	}
	if deadline := getString(raw, "deadline"); deadline != "" {
		if t, err := time.Parse(time.RFC3339, deadline); err == nil {
			checkout.ExpiresAt = &t
		}
	}
	return checkout, nil
}

// unwrap parses a provider response and converts its error envelope
// ({errors: [{category, code, detail}]}) into a ProviderCallError.
func (a *TerminalPOSAdapter) unwrap(resp []byte, op string) (map[string]interface{}, error) {
	body, ok := decodeBody(resp)
	if !ok {
		return nil, callError(ProviderTerminalPOS, op, "unexpected response format", nil)
	}
	if errs := getSlice(body, "errors"); len(errs) > 0 {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			em, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			detail := getString(em, "detail")
			if detail == "" {
				detail = getString(em, "code")
			}
			if category := getString(em, "category"); category != "" {
				detail = category + ": " + detail
			}
			details = append(details, detail)
		}
		return nil, callError(ProviderTerminalPOS, op, strings.Join(details, "; "), nil)
	}
	return body, nil
}

func terminalPaymentStatus(provider string) Status {
	switch provider {
	case "COMPLETED":
		return StatusSucceeded
	case "PENDING", "APPROVED":
		return StatusPending
	default:
		return StatusFailed
	}
}

func terminalRefundStatus(provider string) Status {
	switch provider {
	case "COMPLETED":
		return StatusSucceeded
	case "PENDING":
		return StatusPending
	default:
		return StatusFailed
	}
}

// statusFromCheckout reshapes a checkout state into the canonical payment
// status: a fresh terminal checkout is pending from the caller's point of
// view, completion arrives out-of-band.
func statusFromCheckout(status CheckoutStatus) Status {
	switch status {
	case CheckoutCompleted:
		return StatusSucceeded
	case CheckoutCanceled, CheckoutFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}
