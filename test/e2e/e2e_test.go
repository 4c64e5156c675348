// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"availability-notifier/internal/common/config"
	"availability-notifier/internal/common/database"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/models"
	"availability-notifier/internal/notify"
	"availability-notifier/internal/sender"
	"availability-notifier/internal/store"
)

// ==========================
// Infrastructure
// ==========================

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func connectRedis(t *testing.T) *database.RedisClient {
	rc, err := database.NewRedis(config.RedisConfig{Address: getenv("E2E_REDIS_ADDR", "localhost:6379")})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		t.Skipf("Skipping test: Redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func connectPostgres(t *testing.T) *database.PostgresClient {
	pg, err := database.NewPostgres(config.PostgresConfig{
		Host:     getenv("E2E_PG_HOST", "localhost"),
		Port:     5432,
		Database: getenv("E2E_PG_DATABASE", "notifier"),
		User:     getenv("E2E_PG_USER", "postgres"),
		Password: getenv("E2E_PG_PASSWORD", "postgres"),
		SSLMode:  "disable",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pg.Ping(ctx); err != nil {
		t.Skipf("Skipping test: PostgreSQL not reachable: %v", err)
	}
	t.Cleanup(func() { _ = pg.Close() })
	return pg
}

// ==========================
// Fakes
// ==========================

type staticSource struct {
	locations    []models.Location
	availability []models.LocationAvailability
}

func (s *staticSource) GetAvailability(context.Context, string) ([]models.LocationAvailability, error) {
	return s.availability, nil
}

func (s *staticSource) GetLocations(context.Context, string) ([]models.Location, error) {
	return s.locations, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent map[string]sender.Message
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, msg sender.Message) (*sender.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[msg.Recipient] {
		return nil, fmt.Errorf("carrier rejected %s", msg.Recipient)
	}
	r.sent[msg.Recipient] = msg
	return &sender.Delivery{Address: msg.Recipient, MessageID: "e2e-" + msg.Recipient, Delivered: true}, nil
}

func (r *recordingSender) Channel() string { return "sms" }

func runPipeline(t *testing.T, s store.Store, snd *recordingSender) *notify.RunReport {
	t.Helper()
	log := logger.NewTestLogger(t)
	templates := notify.NewTemplates("en", nil)

	src := &staticSource{
		locations: []models.Location{
			{ID: "e2e-loc-1", Name: "Civic Center", URL: "https://example.org/1", Threshold: models.IntPtr(5)},
			{ID: "e2e-loc-2", Name: "Library", URL: "https://example.org/2"},
			{ID: "e2e-loc-3", Name: "Arena", URL: "https://example.org/3", Threshold: models.IntPtr(10)},
		},
		availability: []models.LocationAvailability{
			{LocationID: "e2e-loc-1", Times: []models.TimeSlot{{Slots: models.IntPtr(3)}, {Slots: models.IntPtr(4)}}},
			{LocationID: "e2e-loc-2", Times: []models.TimeSlot{{Slots: nil}}},
			{LocationID: "e2e-loc-3", Times: []models.TimeSlot{{Slots: models.IntPtr(2)}}},
		},
	}

	c := notify.NewController(notify.ControllerOptions{
		Source:     src,
		Aggregator: notify.NewAggregator(s, templates, log, 4),
		Dispatcher: notify.NewDispatcher(snd, templates, log, notify.WithMaxConcurrency(2)),
		Retirer:    notify.NewRetirer(s, log),
		Logger:     log,
		NewRunID:   func() string { return "e2e" },
	})

	report, err := c.Run(context.Background(), notify.Trigger{Region: "MA"})
	require.NoError(t, err)
	return report
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	for _, sub := range []models.Subscription{
		{LocationID: "e2e-loc-1", Recipient: "+15550000001", Language: "en"},
		{LocationID: "e2e-loc-2", Recipient: "+15550000001", Language: "en"},
		{LocationID: "e2e-loc-2", Recipient: "+15550000002", Language: "es"},
		{LocationID: "e2e-loc-3", Recipient: "+15550000003", Language: "en"},
	} {
		require.NoError(t, s.Put(context.Background(), sub))
	}
}

func assertOutcome(t *testing.T, s store.Store, report *notify.RunReport, snd *recordingSender) {
	t.Helper()
	ctx := context.Background()

	assert.Equal(t, "DONE", report.Stage)
	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 2, report.Recipients)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Retired)

	msg := snd.sent["+15550000001"]
	assert.Contains(t, msg.Body, "Civic Center: https://example.org/1\n")
	assert.Contains(t, msg.Body, "Library: https://example.org/2\n")

	loc1, err := s.QueryPending(ctx, "e2e-loc-1")
	require.NoError(t, err)
	assert.Empty(t, loc1)

	loc2, err := s.QueryPending(ctx, "e2e-loc-2")
	require.NoError(t, err)
	require.Len(t, loc2, 1)
	assert.Equal(t, "+15550000002", loc2[0].Recipient)

	loc3, err := s.QueryPending(ctx, "e2e-loc-3")
	require.NoError(t, err)
	assert.Len(t, loc3, 1)
}

// ==========================
// Tests
// ==========================

func TestE2E_RedisStore(t *testing.T) {
	rc := connectRedis(t)
	prefix := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		keys, _ := rc.Client.Keys(context.Background(), prefix+":*").Result()
		if len(keys) > 0 {
			rc.Client.Del(context.Background(), keys...)
		}
	})

	s := store.NewRedisStore(rc.Client, prefix)
	seed(t, s)

	snd := &recordingSender{sent: map[string]sender.Message{}, fail: map[string]bool{"+15550000002": true}}
	assertOutcome(t, s, runPipeline(t, s, snd), snd)
}

func TestE2E_PostgresStore(t *testing.T) {
	pg := connectPostgres(t)
	table := fmt.Sprintf("e2e_subscriptions_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = pg.DB.Exec("DROP TABLE IF EXISTS " + table)
	})

	s := store.NewPostgresStore(pg.DB, table)
	require.NoError(t, s.EnsureSchema(context.Background()))
	seed(t, s)

	snd := &recordingSender{sent: map[string]sender.Message{}, fail: map[string]bool{"+15550000002": true}}
	assertOutcome(t, s, runPipeline(t, s, snd), snd)
}
