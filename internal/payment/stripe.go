package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"paygate/internal/pkg/httpclient"
	"paygate/internal/vault"
)

const cardAPIBase = "https://api.stripe.com"

// minCardCredentialLen is the shortest plausible key the card provider
// issues; anything shorter is a paste error, not a key.
const minCardCredentialLen = 10

// CardAdapter charges through a Stripe-style card network processor.
// Amounts go over the wire as integer minor units; charges carry an
// idempotency key bounded to the provider's 45-char limit.
type CardAdapter struct {
	vault vault.Decryptor
}

func NewCardAdapter(v vault.Decryptor) *CardAdapter {
	return &CardAdapter{vault: v}
}

func (a *CardAdapter) Provider() Provider {
	return ProviderCard
}

func (a *CardAdapter) credentials(cfg *Config) (clientID, clientSecret string, err error) {
	fields, err := a.vault.Decrypt(cfg.Credentials)
	if err != nil {
		return "", "", &CredentialError{Provider: ProviderCard, Reason: "credential decryption failed"}
	}
	clientID = fields["clientId"]
	clientSecret = fields["clientSecret"]
	if len(clientID) < minCardCredentialLen || len(clientSecret) < minCardCredentialLen {
		return "", "", &CredentialError{Provider: ProviderCard, Reason: "clientId and clientSecret are required"}
	}
	return clientID, clientSecret, nil
}

// TestConnection validates credential shape only. A format check is the
// agreed smoke-test semantics for this provider; no network round-trip.
func (a *CardAdapter) TestConnection(ctx context.Context, cfg *Config) ConnectionTestResult {
	if _, _, err := a.credentials(cfg); err != nil {
		return ConnectionTestResult{Success: false, Error: "Invalid card credentials format"}
	}
	return ConnectionTestResult{Success: true}
}

// ProcessPayment submits a charge. The caller must pass a pre-tokenized
// source: raw card data never crosses this layer.
func (a *CardAdapter) ProcessPayment(ctx context.Context, cfg *Config, data ProcessPaymentData) (*ProcessPaymentResult, error) {
	_, secret, err := a.credentials(cfg)
	if err != nil {
		return nil, err
	}
	if data.SourceID == "" {
		return nil, errors.New("card payments require a tokenized sourceId: tokenize the card client-side and pass the resulting token, never raw card data")
	}

	form := map[string]string{
		"amount":   strconv.FormatInt(toMinorUnits(data.Amount), 10),
		"currency": strings.ToLower(data.Currency),
		"source":   data.SourceID,
		"expand[]": "balance_transaction",
	}
	if data.Description != "" {
		form["description"] = data.Description
	}
	if data.CustomerID != "" {
		form["customer"] = data.CustomerID
	}
	if data.InvoiceID != "" {
		form["metadata[invoice_id]"] = data.InvoiceID
	}
	for k, v := range data.Metadata {
		form["metadata["+k+"]"] = v
	}

	client := httpclient.New().WithBearerToken(secret)
	resp, err := client.PostForm(ctx, cardAPIBase+"/v1/charges", form, map[string]string{
		"Idempotency-Key": idempotencyKey(data.IdempotencyKey),
	})
	if err != nil {
		return nil, callError(ProviderCard, "charge", "", err)
	}

	charge, err := a.unwrap(resp, "charge")
	if err != nil {
		return nil, err
	}

	result := &ProcessPaymentResult{
		TransactionID: getString(charge, "id"),
		Status:        cardStatus(getString(charge, "status")),
		PaymentMethod: "card",
		Amount:        data.Amount,
		Currency:      strings.ToUpper(data.Currency),
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"charge_id": getString(charge, "id"),
		}),
	}

	// Fee is only present when the balance transaction expanded.
	if tx := getMap(charge, "balance_transaction"); tx != nil {
		if feeCents, ok := getFloat(tx, "fee"); ok {
			fee := fromMinorUnits(int64(feeCents))
			result.Fee = &fee
		}
	}

	return result, nil
}

// RefundPayment refunds a prior charge. When no amount is given the
// original charge is fetched and its full captured amount refunded. The
// refund always gets its own idempotency key, never the charge's.
func (a *CardAdapter) RefundPayment(ctx context.Context, cfg *Config, data RefundData) (*RefundResult, error) {
	_, secret, err := a.credentials(cfg)
	if err != nil {
		return nil, err
	}
	if data.TransactionID == "" {
		return nil, errors.New("card refunds require the original transactionId")
	}

	client := httpclient.New().WithBearerToken(secret)

	resp, err := client.Get(ctx, cardAPIBase+"/v1/charges/"+data.TransactionID)
	if err != nil {
		return nil, callError(ProviderCard, "charge lookup", "", err)
	}
	charge, err := a.unwrap(resp, "charge lookup")
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(getString(charge, "currency"))
	refundCents := int64(0)
	if data.Amount != nil {
		refundCents = toMinorUnits(*data.Amount)
	} else if captured, ok := getFloat(charge, "amount"); ok {
		refundCents = int64(captured)
	} else {
		return nil, callError(ProviderCard, "charge lookup", "charge has no amount to refund", nil)
	}

	form := map[string]string{
		"charge": data.TransactionID,
		"amount": strconv.FormatInt(refundCents, 10),
	}
	if data.Reason != "" {
		form["reason"] = data.Reason
	}

	resp, err = client.PostForm(ctx, cardAPIBase+"/v1/refunds", form, map[string]string{
		"Idempotency-Key": idempotencyKey(data.IdempotencyKey),
	})
	if err != nil {
		return nil, callError(ProviderCard, "refund", "", err)
	}
	refund, err := a.unwrap(resp, "refund")
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		RefundID:      getString(refund, "id"),
		TransactionID: data.TransactionID,
		Status:        cardStatus(getString(refund, "status")),
		Amount:        fromMinorUnits(refundCents),
		Currency:      currency,
		Metadata: mergeMetadata(data.Metadata, map[string]string{
			"refund_id": getString(refund, "id"),
		}),
	}, nil
}

// unwrap parses a provider response and converts its error envelope into a
// ProviderCallError.
func (a *CardAdapter) unwrap(resp []byte, op string) (map[string]interface{}, error) {
	body, ok := decodeBody(resp)
	if !ok {
		return nil, callError(ProviderCard, op, "unexpected response format", nil)
	}
	if errObj := getMap(body, "error"); errObj != nil {
		detail := getString(errObj, "message")
		if detail == "" {
			detail = getString(errObj, "type")
		}
		return nil, callError(ProviderCard, op, detail, nil)
	}
	return body, nil
}

func cardStatus(provider string) Status {
	switch provider {
	case "succeeded":
		return StatusSucceeded
	case "pending":
		return StatusPending
	default:
		return StatusFailed
	}
}
