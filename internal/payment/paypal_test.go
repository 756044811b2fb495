package payment

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/vault"
)

const walletTestBase = "https://api-m.sandbox.paypal.com"

func walletConfig() *Config {
	return &Config{
		Provider: ProviderWallet,
		Enabled:  true,
		Settings: map[string]string{"testMode": "true"},
	}
}

func walletVault() vault.Static {
	return vault.Static{
		"clientId":     "wallet-client-id",
		"clientSecret": "wallet-client-secret",
	}
}

func mockWalletToken() {
	gock.New(walletTestBase).
		Post("/v1/oauth2/token").
		Reply(200).
		JSON(map[string]interface{}{
			"access_token": "tok_wallet",
			"token_type":   "Bearer",
		})
}

func TestWalletAdapterTestConnection(t *testing.T) {
	t.Run("valid credentials exchange a token", func(t *testing.T) {
		defer gock.Off()
		mockWalletToken()

		adapter := NewWalletAdapter(walletVault())
		result := adapter.TestConnection(context.Background(), walletConfig())

		assert.True(t, result.Success)
	})

	t.Run("missing fields fail before any network call", func(t *testing.T) {
		adapter := NewWalletAdapter(vault.Static{"clientId": "only-half"})

		result := adapter.TestConnection(context.Background(), walletConfig())

		assert.False(t, result.Success)
		assert.Equal(t, "Invalid wallet credentials format", result.Error)
	})

	t.Run("rejected credentials surface the provider detail", func(t *testing.T) {
		defer gock.Off()
		gock.New(walletTestBase).
			Post("/v1/oauth2/token").
			Reply(401).
			JSON(map[string]interface{}{
				"error":             "invalid_client",
				"error_description": "Client Authentication failed",
			})

		adapter := NewWalletAdapter(walletVault())
		result := adapter.TestConnection(context.Background(), walletConfig())

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "Client Authentication failed")
	})
}

func TestWalletAdapterProcessPaymentUsesDecimalStrings(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	var orderBody map[string]interface{}
	createMock := gock.New(walletTestBase).Post("/v2/checkout/orders")
	captureJSON(createMock, &orderBody)
	createMock.Reply(201).JSON(map[string]interface{}{
		"id":     "ORD-1",
		"status": "CREATED",
	})

	gock.New(walletTestBase).
		Post("/v2/checkout/orders/ORD-1/capture").
		Reply(201).
		JSON(map[string]interface{}{
			"id":     "ORD-1",
			"status": "COMPLETED",
			"purchase_units": []interface{}{
				map[string]interface{}{
					"payments": map[string]interface{}{
						"captures": []interface{}{
							map[string]interface{}{
								"id":     "CAP-1",
								"status": "COMPLETED",
								"seller_receivable_breakdown": map[string]interface{}{
									"paypal_fee": map[string]interface{}{
										"currency_code": "USD",
										"value":         "1.03",
									},
								},
							},
						},
					},
				},
			},
		})

	adapter := NewWalletAdapter(walletVault())
	result, err := adapter.ProcessPayment(context.Background(), walletConfig(), ProcessPaymentData{
		InvoiceID: "inv_7",
		Amount:    decimal.NewFromInt(25),
		Currency:  "usd",
	})
	require.NoError(t, err)

	assert.Equal(t, "CAPTURE", orderBody["intent"])
	units, ok := orderBody["purchase_units"].([]interface{})
	require.True(t, ok)
	require.Len(t, units, 1)
	unit, ok := units[0].(map[string]interface{})
	require.True(t, ok)
	amount, ok := unit["amount"].(map[string]interface{})
	require.True(t, ok)
	// Decimal-string wire encoding, always two places.
	assert.Equal(t, "25.00", amount["value"])
	assert.Equal(t, "USD", amount["currency_code"])
	assert.Equal(t, "inv_7", unit["reference_id"])

	assert.Equal(t, "CAP-1", result.TransactionID)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.Equal(t, "wallet", result.PaymentMethod)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, "ORD-1", result.Metadata["order_id"])
	require.NotNil(t, result.Fee)
	assert.True(t, result.Fee.Equal(decimal.NewFromFloat(1.03)))
}

func TestWalletAdapterProcessPaymentPendingCapture(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	gock.New(walletTestBase).
		Post("/v2/checkout/orders").
		Reply(201).
		JSON(map[string]interface{}{"id": "ORD-2", "status": "CREATED"})

	gock.New(walletTestBase).
		Post("/v2/checkout/orders/ORD-2/capture").
		Reply(201).
		JSON(map[string]interface{}{
			"id":     "ORD-2",
			"status": "COMPLETED",
			"purchase_units": []interface{}{
				map[string]interface{}{
					"payments": map[string]interface{}{
						"captures": []interface{}{
							map[string]interface{}{"id": "CAP-2", "status": "PENDING"},
						},
					},
				},
			},
		})

	adapter := NewWalletAdapter(walletVault())
	result, err := adapter.ProcessPayment(context.Background(), walletConfig(), ProcessPaymentData{
		Amount:   decimal.NewFromFloat(9.99),
		Currency: "EUR",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Status)
	assert.Nil(t, result.Fee)
}

func TestWalletAdapterRefundOmitsAmountForFullRefund(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	gock.New(walletTestBase).
		Get("/v2/payments/captures/CAP-1").
		Reply(200).
		JSON(map[string]interface{}{
			"id":     "CAP-1",
			"status": "COMPLETED",
			"amount": map[string]interface{}{
				"currency_code": "USD",
				"value":         "25.00",
			},
		})

	var refundBody map[string]interface{}
	refundMock := gock.New(walletTestBase).Post("/v2/payments/captures/CAP-1/refund")
	captureJSON(refundMock, &refundBody)
	refundMock.Reply(201).JSON(map[string]interface{}{
		"id":     "REF-1",
		"status": "COMPLETED",
	})

	adapter := NewWalletAdapter(walletVault())
	result, err := adapter.RefundPayment(context.Background(), walletConfig(), RefundData{
		TransactionID: "CAP-1",
	})
	require.NoError(t, err)

	// Full refunds omit the amount entirely; the provider computes it.
	_, hasAmount := refundBody["amount"]
	assert.False(t, hasAmount)

	assert.Equal(t, "REF-1", result.RefundID)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "USD", result.Currency)
}

func TestWalletAdapterRefundPartialSendsAmount(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	gock.New(walletTestBase).
		Get("/v2/payments/captures/CAP-1").
		Reply(200).
		JSON(map[string]interface{}{
			"id": "CAP-1",
			"amount": map[string]interface{}{
				"currency_code": "USD",
				"value":         "25.00",
			},
		})

	var refundBody map[string]interface{}
	refundMock := gock.New(walletTestBase).Post("/v2/payments/captures/CAP-1/refund")
	captureJSON(refundMock, &refundBody)
	refundMock.Reply(201).JSON(map[string]interface{}{
		"id":     "REF-2",
		"status": "PENDING",
	})

	partial := decimal.NewFromInt(10)
	adapter := NewWalletAdapter(walletVault())
	result, err := adapter.RefundPayment(context.Background(), walletConfig(), RefundData{
		TransactionID: "CAP-1",
		Amount:        &partial,
		Reason:        "item returned",
	})
	require.NoError(t, err)

	amount, ok := refundBody["amount"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "10.00", amount["value"])
	assert.Equal(t, "USD", amount["currency_code"])
	assert.Equal(t, "item returned", refundBody["note_to_payer"])

	assert.Equal(t, StatusPending, result.Status)
	assert.True(t, result.Amount.Equal(partial))
}

func TestWalletAdapterRefundFailsWithoutCaptureAmount(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	// Lookup response missing the amount object entirely.
	gock.New(walletTestBase).
		Get("/v2/payments/captures/CAP-1").
		Reply(200).
		JSON(map[string]interface{}{
			"id":     "CAP-1",
			"status": "COMPLETED",
		})

	partial := decimal.NewFromInt(10)
	adapter := NewWalletAdapter(walletVault())
	_, err := adapter.RefundPayment(context.Background(), walletConfig(), RefundData{
		TransactionID: "CAP-1",
		Amount:        &partial,
	})

	// The refund request is never sent with an empty currency_code; the
	// lookup defect surfaces instead.
	var callErr *ProviderCallError
	require.ErrorAs(t, err, &callErr)
	assert.Contains(t, err.Error(), "capture has no amount")
}

func TestWalletAdapterErrorEnvelope(t *testing.T) {
	defer gock.Off()
	mockWalletToken()

	gock.New(walletTestBase).
		Post("/v2/checkout/orders").
		Reply(422).
		JSON(map[string]interface{}{
			"name":    "UNPROCESSABLE_ENTITY",
			"message": "The requested action could not be performed.",
			"details": []interface{}{
				map[string]interface{}{"description": "Order amount invalid"},
			},
		})

	adapter := NewWalletAdapter(walletVault())
	_, err := adapter.ProcessPayment(context.Background(), walletConfig(), ProcessPaymentData{
		Amount:   decimal.NewFromInt(-1),
		Currency: "USD",
	})

	var callErr *ProviderCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, ProviderWallet, callErr.Provider)
	assert.Contains(t, err.Error(), "Order amount invalid")
}

func TestWalletStatusMapping(t *testing.T) {
	assert.Equal(t, StatusSucceeded, walletStatus("COMPLETED"))
	assert.Equal(t, StatusPending, walletStatus("PENDING"))
	assert.Equal(t, StatusFailed, walletStatus("DECLINED"))
	assert.Equal(t, StatusFailed, walletStatus(""))
}
