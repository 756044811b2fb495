package payment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"paygate/internal/pkg/httpclient"
	"paygate/internal/vault"
)

const (
	walletLiveBase    = "https://api-m.paypal.com"
	walletSandboxBase = "https://api-m.sandbox.paypal.com"
)

// WalletAdapter charges through a PayPal-style wallet/redirect processor
// using its two-phase order lifecycle: create an order with intent CAPTURE,
// then capture it. Both phases run synchronously inside ProcessPayment; the
// asynchronous buyer-approval redirect flow is not implemented here, and the
// two provider calls are deliberately kept distinct so a future split is a
// small change.
//
// Amounts go over the wire as decimal strings fixed to two places, the
// opposite encoding from the card adapter's integer cents.
type WalletAdapter struct {
	vault vault.Decryptor
}

func NewWalletAdapter(v vault.Decryptor) *WalletAdapter {
	return &WalletAdapter{vault: v}
}

func (a *WalletAdapter) Provider() Provider {
	return ProviderWallet
}

func (a *WalletAdapter) base(cfg *Config) string {
	if cfg.TestMode() {
		return walletSandboxBase
	}
	return walletLiveBase
}

func (a *WalletAdapter) credentials(cfg *Config) (clientID, clientSecret string, err error) {
	fields, err := a.vault.Decrypt(cfg.Credentials)
	if err != nil {
		return "", "", &CredentialError{Provider: ProviderWallet, Reason: "credential decryption failed"}
	}
	clientID = fields["clientId"]
	clientSecret = fields["clientSecret"]
	if clientID == "" || clientSecret == "" {
		return "", "", &CredentialError{Provider: ProviderWallet, Reason: "clientId and clientSecret are required"}
	}
	return clientID, clientSecret, nil
}

// token performs the OAuth client-credentials exchange.
func (a *WalletAdapter) token(ctx context.Context, cfg *Config) (string, error) {
	clientID, clientSecret, err := a.credentials(cfg)
	if err != nil {
		return "", err
	}

	client := httpclient.New().WithBasicAuth(clientID, clientSecret)
	resp, err := client.PostForm(ctx, a.base(cfg)+"/v1/oauth2/token", map[string]string{
		"grant_type": "client_credentials",
	}, nil)
	if err != nil {
		return "", callError(ProviderWallet, "token", "", err)
	}

	body, ok := decodeBody(resp)
	if !ok {
		return "", callError(ProviderWallet, "token", "unexpected response format", nil)
	}
	token := getString(body, "access_token")
	if token == "" {
		detail := getString(body, "error_description")
		if detail == "" {
			detail = getString(body, "error")
		}
		return "", callError(ProviderWallet, "token", detail, nil)
	}
	return token, nil
}

// TestConnection exchanges the stored credentials for an access token; an
// OAuth provider's cheapest meaningful probe.
func (a *WalletAdapter) TestConnection(ctx context.Context, cfg *Config) ConnectionTestResult {
	if _, _, err := a.credentials(cfg); err != nil {
		return ConnectionTestResult{Success: false, Error: "Invalid wallet credentials format"}
	}
	if _, err := a.token(ctx, cfg); err != nil {
		return ConnectionTestResult{Success: false, Error: err.Error()}
	}
	return ConnectionTestResult{Success: true}
}

// ProcessPayment creates a CAPTURE-intent order and captures it immediately.
func (a *WalletAdapter) ProcessPayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	token, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := httpclient.New().WithBearerToken(token)

	unit := map[string]interface{}{
		"amount": map[string]interface{}{
			"currency_code": strings.ToUpper(data.Currency),
			"value":         toAmountString(data.Amount),
		},
	}
	if data.InvoiceID != "" {
		unit["reference_id"] = data.InvoiceID
	}
	if data.Description != "" {
		unit["description"] = data.Description
	}

	resp, err := client.Post(ctx, a.base(cfg)+"/v2/checkout/orders", map[string]interface{}{
		"intent":         "CAPTURE",
		"purchase_units": []interface{}{unit},
	})
	if err != nil {
		return nil, callError(ProviderWallet, "create order", "", err)
	}
	order, err := a.unwrap(resp, "create order")
	if err != nil {
		return nil, err
	}
	orderID := getString(order, "id")
	if orderID == "" {
		return nil, callError(ProviderWallet, "create order", "no order id in response", nil)
	}

	resp, err = client.Post(ctx, a.base(cfg)+"/v2/checkout/orders/"+orderID+"/capture", nil)
	if err != nil {
		return nil, callError(ProviderWallet, "capture order", "", err)
	}
	captured, err := a.unwrap(resp, "capture order")
	if err != nil {
		return nil, err
	}

	capture := firstCapture(captured)
	if capture == nil {
		return nil, callError(ProviderWallet, "capture order", "no capture in order response", nil)
	}

	result := &ProcessPaymentResult{
		TransactionID: getString(capture, "id"),
		Status:        walletStatus(getString(capture, "status")),
		PaymentMethod: "wallet",
		Amount:        data.Amount,
		Currency:      strings.ToUpper(data.Currency),
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"order_id":   orderID,
			"capture_id": getString(capture, "id"),
		}),
	}

	if breakdown := getMap(capture, "seller_receivable_breakdown"); breakdown != nil {
		if feeObj := getMap(breakdown, "paypal_fee"); feeObj != nil {
			result.Fee = feeFromString(getString(feeObj, "value"))
		}
	}

	return result, nil
}

// RefundPayment refunds a capture. The original capture is looked up for
// its currency; a refund amount is sent only when the caller specified one,
// otherwise the amount field is omitted entirely so the provider applies
// its own full-refund semantics.
func (a *WalletAdapter) RefundPayment(ctx context.Context, cfg *Config, data RefundData) (*RefundResult, error) {
	token, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if data.TransactionID == "" {
		return nil, callError(ProviderWallet, "refund", "original transactionId is required", nil)
	}

	client := httpclient.New().WithBearerToken(token)

	resp, err := client.Get(ctx, a.base(cfg)+"/v2/payments/captures/"+data.TransactionID)
	if err != nil {
		return nil, callError(ProviderWallet, "capture lookup", "", err)
	}
	capture, err := a.unwrap(resp, "capture lookup")
	if err != nil {
		return nil, err
	}

	amountObj := getMap(capture, "amount")
	if amountObj == nil {
		return nil, callError(ProviderWallet, "capture lookup", "capture has no amount", nil)
	}
	currency := getString(amountObj, "currency_code")
	if currency == "" {
		return nil, callError(ProviderWallet, "capture lookup", "capture has no currency", nil)
	}
	capturedValue := decimal.Zero
	if v, err := decimal.NewFromString(getString(amountObj, "value")); err == nil {
		capturedValue = v
	}

	body := map[string]interface{}{}
	if data.Reason != "" {
		body["note_to_payer"] = data.Reason
	}
	if data.Amount != nil {
		body["amount"] = map[string]interface{}{
			"value":         toAmountString(*data.Amount),
			"currency_code": currency,
		}
	}

	resp, err = client.Post(ctx, a.base(cfg)+"/v2/payments/captures/"+data.TransactionID+"/refund", body)
	if err != nil {
		return nil, callError(ProviderWallet, "refund", "", err)
	}
	refund, err := a.unwrap(resp, "refund")
	if err != nil {
		return nil, err
	}

	refunded := capturedValue
	if data.Amount != nil {
		refunded = *data.Amount
	}

	return &RefundResult{
		RefundID:      getString(refund, "id"),
		TransactionID: data.TransactionID,
		Status:        walletStatus(getString(refund, "status")),
		Amount:        refunded,
		Currency:      currency,
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"refund_id": getString(refund, "id"),
		}),
	}, nil
}

// unwrap parses a provider response and converts its error envelope
// ({name, message, details[]}) into a ProviderCallError.
func (a *WalletAdapter) unwrap(resp []byte, op string) (map[string]interface{}, error) {
	body, ok := decodeBody(resp)
	if !ok {
		return nil, callError(ProviderWallet, op, "unexpected response format", nil)
	}
	if name := getString(body, "name"); name != "" {
		detail := getString(body, "message")
		if details := getSlice(body, "details"); len(details) > 0 {
			if d := firstMap(details); d != nil && getString(d, "description") != "" {
				detail = getString(d, "description")
			}
		}
		if detail == "" {
			detail = name
		}
		return nil, callError(ProviderWallet, op, detail, nil)
	}
	return body, nil
}

// firstCapture digs the first capture out of a captured order's
// purchase_units[].payments.captures[] nesting.
func firstCapture(order map[string]interface{}) map[string]interface{} {
	unit := firstMap(getSlice(order, "purchase_units"))
	if unit == nil {
		return nil
	}
	payments := getMap(unit, "payments")
	if payments == nil {
		return nil
	}
	return firstMap(getSlice(payments, "captures"))
}

func walletStatus(provider string) Status {
	switch provider {
	case "COMPLETED":
		return StatusSucceeded
	case "PENDING":
		return StatusPending
	default:
		return StatusFailed
	}
}

// feeFromString parses a provider decimal-string fee, tolerating absence.
func feeFromString(value string) *decimal.Decimal {
	if value == "" {
		return nil
	}
	fee, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &fee
}
