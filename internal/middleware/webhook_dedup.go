package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// EventDeduper tracks processed provider webhook event IDs. Providers
// redeliver events until acknowledged, so replays are routine.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

type redisEventDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisEventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	key := d.prefix + ":" + eventID
	ok, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

type memoryEventDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func newMemoryEventDeduper(ttl time.Duration) *memoryEventDeduper {
	now := time.Now()
	return &memoryEventDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
	}
}

func (d *memoryEventDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[eventID]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[eventID] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for id, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, id)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

// NewEventDeduper builds a Redis deduper and falls back to in-memory on
// failure.
func NewEventDeduper(addr, pass string, db int, ttl time.Duration) (EventDeduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return newMemoryEventDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryEventDeduper(ttl), err
	}

	return &redisEventDeduper{
		client: client,
		prefix: "webhook:event",
		ttl:    ttl,
	}, nil
}

// WebhookEventDedup drops replayed provider webhook deliveries by event id.
// Providers disagree on the field name; "event_id" and "id" cover the
// families we integrate.
func WebhookEventDedup(deduper EventDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			req := c.Request()
			if req.Body == nil {
				return next(c)
			}

			rawBody, err := io.ReadAll(req.Body)
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(rawBody))
			if len(rawBody) == 0 {
				return next(c)
			}

			var payload struct {
				EventID string `json:"event_id"`
				ID      string `json:"id"`
			}
			if err := json.Unmarshal(rawBody, &payload); err != nil {
				return next(c)
			}
			eventID := payload.EventID
			if eventID == "" {
				eventID = payload.ID
			}
			if eventID == "" {
				return next(c)
			}

			isDuplicate, err := deduper.Seen(req.Context(), eventID)
			if err != nil {
				return next(c)
			}
			if isDuplicate {
				// Providers only need a 2xx response to stop retries.
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
