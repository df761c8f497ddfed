// Package stream carries the agreement-variant transport: a Redis Streams
// consumer for inbound change envelopes and a producer for finished profiles.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readBlock = 5 * time.Second
	readCount = 16
	// Field carrying the serialized envelope or profile in a stream entry.
	payloadField = "payload"
	keyField     = "key"
)

// NewClient connects to Redis and verifies the server is reachable; callers
// treat failure as fatal at startup.
func NewClient(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("NewClient: ping: %w", err)
	}
	return rdb, nil
}

// Handler processes one inbound message. The message key is opaque; the
// consumer acknowledges after the handler returns regardless of outcome, so
// a poison message never blocks the channel.
type Handler func(ctx context.Context, key string, payload []byte)

// Consumer reads envelope messages from the input stream as part of a
// consumer group.
type Consumer struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
}

func NewConsumer(rdb *redis.Client, stream, group, consumer string, logger *slog.Logger) *Consumer {
	return &Consumer{rdb: rdb, stream: stream, group: group, consumer: consumer, logger: logger}
}

// Start creates the consumer group if needed and begins the read loop.
// Group-creation failure is a startup failure and returned; read errors
// afterwards are logged and retried.
func (c *Consumer) Start(ctx context.Context, handle Handler) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("Start: create group %s on %s: %w", c.group, c.stream, err)
	}
	c.logger.Info("stream consumer started", "stream", c.stream, "group", c.group)

	go c.loop(ctx, handle)
	return nil
}

func (c *Consumer) loop(ctx context.Context, handle Handler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("stream consumer stopped")
			return
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("stream consumer stopped")
				return
			}
			c.logger.Warn("stream read failed", "stream", c.stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				key, payload := unpack(msg)
				handle(ctx, key, payload)
				if err := c.rdb.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
					c.logger.Warn("stream ack failed", "id", msg.ID, "error", err)
				}
			}
		}
	}
}

func unpack(msg redis.XMessage) (string, []byte) {
	key, _ := msg.Values[keyField].(string)
	if v, ok := msg.Values[payloadField].(string); ok {
		return key, []byte(v)
	}
	// Fall back to any single value for producers that use their own field name.
	for _, v := range msg.Values {
		if s, ok := v.(string); ok {
			return key, []byte(s)
		}
	}
	return key, nil
}

// Producer publishes finished profiles to the output stream, keyed by
// customer id.
type Producer struct {
	rdb    *redis.Client
	stream string
}

func NewProducer(rdb *redis.Client, stream string) *Producer {
	return &Producer{rdb: rdb, stream: stream}
}

func (p *Producer) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{keyField: key, payloadField: string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("Publish: %s: %w", p.stream, err)
	}
	return nil
}
