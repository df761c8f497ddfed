package stream

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxic/multi-odl-demo/internal/testutil"
)

type capture struct {
	mu       sync.Mutex
	messages []string
	keys     []string
}

func (c *capture) handle(_ context.Context, key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.messages = append(c.messages, string(payload))
}

func (c *capture) snapshot() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...), append([]string(nil), c.messages...)
}

func waitForMessages(t *testing.T, c *capture, n int) {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if _, msgs := c.snapshot(); len(msgs) >= n {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	_, msgs := c.snapshot()
	t.Fatalf("expected %d messages, got %d", n, len(msgs))
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	rdb := testutil.SetupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := NewProducer(rdb, "test.events")
	require.NoError(t, producer.Publish(ctx, "42", []byte(`{"agreement_id":1}`)))
	require.NoError(t, producer.Publish(ctx, "43", []byte(`{"agreement_id":2}`)))

	got := &capture{}
	consumer := NewConsumer(rdb, "test.events", "test-group", "consumer-1", slog.Default())
	require.NoError(t, consumer.Start(ctx, got.handle))

	waitForMessages(t, got, 2)
	keys, msgs := got.snapshot()
	assert.Equal(t, []string{"42", "43"}, keys)
	assert.Equal(t, []string{`{"agreement_id":1}`, `{"agreement_id":2}`}, msgs)
}

func TestConsumerAcksPoisonMessages(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	rdb := testutil.SetupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := NewProducer(rdb, "test.poison")
	require.NoError(t, producer.Publish(ctx, "", []byte("not json at all")))
	require.NoError(t, producer.Publish(ctx, "7", []byte(`{"customer_id":7}`)))

	got := &capture{}
	consumer := NewConsumer(rdb, "test.poison", "test-group", "consumer-1", slog.Default())
	require.NoError(t, consumer.Start(ctx, got.handle))

	// Both messages are delivered and acknowledged; the bad one does not
	// block the good one.
	waitForMessages(t, got, 2)

	deadline := time.Now().Add(5 * time.Second)
	for {
		pending, err := rdb.XPending(ctx, "test.poison", "test-group").Result()
		require.NoError(t, err)
		if pending.Count == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d messages still pending", pending.Count)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestConsumerToleratesExistingGroup(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	rdb := testutil.SetupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rdb.XGroupCreateMkStream(ctx, "test.existing", "test-group", "0").Err())

	got := &capture{}
	consumer := NewConsumer(rdb, "test.existing", "test-group", "consumer-1", slog.Default())
	require.NoError(t, consumer.Start(ctx, got.handle))
}

func TestUnpackFallsBackToFirstStringValue(t *testing.T) {
	// Entries written by foreign producers may use their own field name.
	key, payload := unpack(redis.XMessage{Values: map[string]any{"data": `{"x":1}`}})
	assert.Empty(t, key)
	assert.Equal(t, `{"x":1}`, string(payload))

	key, payload = unpack(redis.XMessage{Values: map[string]any{"key": "9", "payload": "body"}})
	assert.Equal(t, "9", key)
	assert.Equal(t, "body", string(payload))
}
