package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BookingChannel  = "booking:updates"
	PropertyChannel = "property:updates"
	ReviewChannel   = "review:updates"
)

// InitRedis connects to url and verifies the connection.
func InitRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisPublisher forwards events to Redis pub/sub so other processes can
// react to bookings and listing decisions.
type RedisPublisher struct {
	client redis.UniversalClient
	log    *slog.Logger
}

func NewRedisPublisher(client redis.UniversalClient, log *slog.Logger) *RedisPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &RedisPublisher{client: client, log: log}
}

func channelFor(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "booking_"):
		return BookingChannel
	case strings.HasPrefix(eventType, "review_"):
		return ReviewChannel
	}
	return PropertyChannel
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(map[string]any{
		"type":      ev.Type,
		"data":      ev.Data,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		p.log.Error("marshal redis event failed", "type", ev.Type, "error", err)
		return
	}
	if err := p.client.Publish(ctx, channelFor(ev.Type), payload).Err(); err != nil {
		p.log.Warn("redis publish failed", "type", ev.Type, "error", err)
	}
}

// RedisCounter implements a fixed-window counter on INCR with a TTL set
// when the window opens.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

// Incr counts a hit for key and returns the total in the current window.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		k := c.prefix + key
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
