package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"signal-systemv1/internal/model"
)

// RedisSinkConfig configures the Redis publisher.
type RedisSinkConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// RedisSink publishes strategy emissions to Redis PubSub so the external
// transport layer (API gateway, dashboard socket) can fan them out.
// Channel naming: "pub:<event>:<product>".
type RedisSink struct {
	client  *goredis.Client
	log     *slog.Logger
	breaker *Breaker
}

// NewRedisSink connects to Redis and pings the server.
func NewRedisSink(cfg RedisSinkConfig, log *slog.Logger) (*RedisSink, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	breaker := NewBreaker(5, 10*time.Second)
	breaker.onStateChange = func(from, to string) {
		log.Warn("redis sink breaker state changed", slog.String("from", from), slog.String("to", to))
	}

	log.Info("redis sink connected", slog.String("addr", cfg.Addr))
	return &RedisSink{client: client, log: log, breaker: breaker}, nil
}

// Client returns the underlying Redis client for health checks.
func (s *RedisSink) Client() *goredis.Client { return s.client }

// Emit publishes the payload as JSON. Publish failures are logged and
// swallowed; emission is best-effort and must never stall tick dispatch.
func (s *RedisSink) Emit(event string, payload any) {
	channel := "pub:" + event
	var body []byte
	switch p := payload.(type) {
	case model.Signal:
		channel += ":" + p.Product.String()
		body = p.JSON()
	case model.Crossover:
		channel += ":" + p.Product.String()
		body = p.JSON()
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			s.log.Warn("redis sink marshal failed", slog.String("event", event), slog.Any("error", err))
			return
		}
		body = b
	}

	err := s.breaker.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.client.Publish(ctx, channel, body).Err()
	})
	if err != nil && err != ErrBreakerOpen {
		s.log.Warn("redis publish failed", slog.String("channel", channel), slog.Any("error", err))
	}
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error { return s.client.Close() }
