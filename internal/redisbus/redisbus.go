// Package redisbus broadcasts invalidation messages over a Redis stream.
// Each session reads through its own consumer group so every session
// receives every message.
package redisbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fintrack/internal/broadcast"
)

const eventField = "event"

type Config struct {
	Stream  string
	Session string // consumer group name, unique per session
	// MaxLen caps the stream length (approximate). Zero keeps 1000.
	MaxLen        int64
	BatchSize     int64
	BlockDuration time.Duration
}

type Bus struct {
	client        *redis.Client
	stream        string
	group         string
	maxLen        int64
	batchSize     int64
	blockDuration time.Duration
	ownsClient    bool
}

var _ broadcast.Bus = (*Bus)(nil)

// Dial connects to Redis and verifies the connection with a ping.
func Dial(addr, password string, db int, cfg Config) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  -1, // XREADGROUP blocks longer than a normal read
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	b := New(rdb, cfg)
	b.ownsClient = true
	return b, nil
}

// New wraps an existing client.
func New(client *redis.Client, cfg Config) *Bus {
	if cfg.MaxLen == 0 {
		cfg.MaxLen = 1000
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	return &Bus{
		client:        client,
		stream:        cfg.Stream,
		group:         cfg.Session,
		maxLen:        cfg.MaxLen,
		batchSize:     cfg.BatchSize,
		blockDuration: cfg.BlockDuration,
	}
}

func (b *Bus) Publish(ctx context.Context, msg broadcast.Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{
			eventField: body,
		},
	}
	if _, err := b.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe creates the session group at the end of the stream and reads
// new messages until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, h broadcast.Handler) error {
	err := b.client.XGroupCreateMkStream(ctx, b.stream, b.group, "$").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	slog.InfoContext(ctx, "Redis subscriber started", "stream", b.stream, "group", b.group)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Redis subscriber stopping", "stream", b.stream)
			return ctx.Err()
		default:
			if err := b.readMessages(ctx, h); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "Error reading messages", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (b *Bus) readMessages(ctx context.Context, h broadcast.Handler) error {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.group,
		Consumer: b.group,
		Streams:  []string{b.stream, ">"},
		Count:    b.batchSize,
		Block:    b.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil // No messages
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := processMessage(ctx, message, h); err != nil {
				slog.WarnContext(ctx, "Failed to process message", "id", message.ID, "error", err)
			}
			// Invalidations are idempotent, so failed ones are acked too.
			if err := b.client.XAck(ctx, b.stream, b.group, message.ID).Err(); err != nil {
				slog.WarnContext(ctx, "Failed to ACK message", "id", message.ID, "error", err)
			}
		}
	}
	return nil
}

func processMessage(ctx context.Context, message redis.XMessage, h broadcast.Handler) error {
	raw, ok := message.Values[eventField].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}
	msg, err := broadcast.MessageFromJSON([]byte(raw))
	if err != nil {
		return err
	}
	return h(ctx, msg)
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Close removes the session group and, if Dial created the client, closes it.
func (b *Bus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.XGroupDestroy(ctx, b.stream, b.group).Err(); err != nil {
		slog.Debug("Failed to destroy consumer group", "group", b.group, "error", err)
	}
	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}
