package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventDeduper(t *testing.T) {
	d := newMemoryEventDeduper(time.Minute)
	ctx := context.Background()

	seen, err := d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryEventDeduperExpiry(t *testing.T) {
	d := newMemoryEventDeduper(20 * time.Millisecond)
	ctx := context.Background()

	_, err := d.Seen(ctx, "evt_1")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	seen, err := d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNewEventDeduperWithoutRedisFallsBack(t *testing.T) {
	d, err := NewEventDeduper("", "", 0, 0)
	require.NoError(t, err)
	require.NotNil(t, d)

	seen, err := d.Seen(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func deliverWebhook(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/terminal-pos", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEventDedupDropsReplays(t *testing.T) {
	calls := 0
	e := echo.New()
	e.POST("/webhooks/terminal-pos", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, WebhookEventDedup(newMemoryEventDeduper(time.Minute)))

	body := `{"event_id":"evt_1","type":"terminal.checkout.updated"}`

	first := deliverWebhook(e, body)
	replay := deliverWebhook(e, body)

	// The replay is still acknowledged so the provider stops retrying.
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, 1, calls)
}

func TestWebhookEventDedupFallsBackToIDField(t *testing.T) {
	calls := 0
	e := echo.New()
	e.POST("/webhooks/terminal-pos", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, WebhookEventDedup(newMemoryEventDeduper(time.Minute)))

	body := `{"id":"evt_9","type":"terminal.checkout.updated"}`
	deliverWebhook(e, body)
	deliverWebhook(e, body)

	assert.Equal(t, 1, calls)
}

func TestWebhookEventDedupPassesThroughWithoutEventID(t *testing.T) {
	calls := 0
	e := echo.New()
	e.POST("/webhooks/terminal-pos", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, WebhookEventDedup(newMemoryEventDeduper(time.Minute)))

	deliverWebhook(e, `{"type":"terminal.checkout.updated"}`)
	deliverWebhook(e, `{"type":"terminal.checkout.updated"}`)
	deliverWebhook(e, `not json`)

	assert.Equal(t, 3, calls)
}

func TestWebhookEventDedupNilDeduper(t *testing.T) {
	calls := 0
	e := echo.New()
	e.POST("/webhooks/terminal-pos", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, WebhookEventDedup(nil))

	deliverWebhook(e, `{"event_id":"evt_1"}`)
	deliverWebhook(e, `{"event_id":"evt_1"}`)

	assert.Equal(t, 2, calls)
}

// Handlers behind the middleware must still see the original body.
func TestWebhookEventDedupPreservesBody(t *testing.T) {
	var got string
	e := echo.New()
	e.POST("/webhooks/terminal-pos", func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		got = string(raw)
		return c.NoContent(http.StatusOK)
	}, WebhookEventDedup(newMemoryEventDeduper(time.Minute)))

	body := `{"event_id":"evt_1","type":"terminal.checkout.updated"}`
	deliverWebhook(e, body)

	assert.Equal(t, body, got)
}
