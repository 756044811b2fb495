package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/h2non/gock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paygate/internal/payment"
	"paygate/internal/pkg/alert"
)

type stubStore struct {
	cfg *payment.Config
}

func (s stubStore) Get(context.Context, string) (*payment.Config, error) {
	return s.cfg, nil
}

type recordingAdapter struct {
	processed *payment.ProcessPaymentData
	err       error
}

func (a *recordingAdapter) Provider() payment.Provider {
	return payment.ProviderCard
}

func (a *recordingAdapter) TestConnection(context.Context, *payment.Config) payment.ConnectionTestResult {
	return payment.ConnectionTestResult{Success: true}
}

func (a *recordingAdapter) ProcessPayment(_ context.Context, _ *payment.Config, data payment.ProcessPaymentData) (*payment.ProcessPaymentResult, error) {
	a.processed = &data
	if a.err != nil {
		return nil, a.err
	}
	return &payment.ProcessPaymentResult{TransactionID: "tx_1", Status: payment.StatusSucceeded}, nil
}

func (a *recordingAdapter) RefundPayment(context.Context, *payment.Config, payment.RefundData) (*payment.RefundResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &payment.RefundResult{RefundID: "re_1"}, nil
}

func paymentContext(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/tenants/t1/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tenants/:tenant/payments")
	c.SetParamNames("tenant")
	c.SetParamValues("t1")
	return c, rec
}

func cardService(adapter *recordingAdapter) *payment.Service {
	store := stubStore{cfg: &payment.Config{Provider: payment.ProviderCard, Enabled: true}}
	return payment.NewService(store, zap.NewNop(), adapter)
}

func TestProcessPaymentGeneratesReferenceWhenInvoiceAbsent(t *testing.T) {
	adapter := &recordingAdapter{}
	h := NewPaymentHandler(cardService(adapter), nil, nil, zap.NewNop())

	c, rec := paymentContext(echo.New(), `{"amount":19.99,"currency":"USD","source_id":"tok_1"}`)
	require.NoError(t, h.ProcessPayment(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, adapter.processed)
	assert.True(t, strings.HasPrefix(adapter.processed.InvoiceID, "PAY-"))
}

func TestProcessPaymentKeepsCallerInvoice(t *testing.T) {
	adapter := &recordingAdapter{}
	h := NewPaymentHandler(cardService(adapter), nil, nil, zap.NewNop())

	c, _ := paymentContext(echo.New(), `{"invoice_id":"inv_1","amount":19.99,"currency":"USD","source_id":"tok_1"}`)
	require.NoError(t, h.ProcessPayment(c))

	require.NotNil(t, adapter.processed)
	assert.Equal(t, "inv_1", adapter.processed.InvoiceID)
}

func TestProcessPaymentFailureFiresAlert(t *testing.T) {
	defer gock.Off()

	var alertBody map[string]interface{}
	mock := gock.New("https://api.telegram.org").Post("/bottest-token/sendMessage")
	mock.AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		if err := json.Unmarshal(raw, &alertBody); err != nil {
			return false, err
		}
		return true, nil
	})
	mock.Reply(200).JSON(map[string]interface{}{"ok": true})

	notifier := alert.New("test-token", "9", zap.NewNop())
	adapter := &recordingAdapter{err: errors.New("card charge failed: declined")}
	h := NewPaymentHandler(cardService(adapter), nil, notifier, zap.NewNop())

	c, rec := paymentContext(echo.New(), `{"amount":19.99,"currency":"USD","source_id":"tok_1"}`)
	require.NoError(t, h.ProcessPayment(c))

	// The handler still answers the caller with the error message.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "declined")

	assert.True(t, gock.IsDone())
	text, _ := alertBody["text"].(string)
	assert.Contains(t, text, "charge")
	assert.Contains(t, text, "t1")
	assert.Equal(t, "9", alertBody["chat_id"])
}

func TestProcessPaymentFailureWithoutNotifier(t *testing.T) {
	adapter := &recordingAdapter{err: errors.New("card charge failed: declined")}
	h := NewPaymentHandler(cardService(adapter), nil, nil, zap.NewNop())

	c, rec := paymentContext(echo.New(), `{"amount":19.99,"currency":"USD","source_id":"tok_1"}`)
	require.NoError(t, h.ProcessPayment(c))

	assert.Contains(t, rec.Body.String(), "declined")
}
