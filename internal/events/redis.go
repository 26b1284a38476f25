package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// DefaultChannel is the pub/sub channel monitoring consumers subscribe to.
const DefaultChannel = "flashd:events"

// RedisSink publishes events as JSON to a Redis pub/sub channel so monitoring
// can run in a separate process.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSink creates a RedisSink publishing to channel (DefaultChannel when
// empty).
func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{rdb: rdb, channel: channel}
}

// Deliver publishes the event.
func (s *RedisSink) Deliver(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis sink: marshal event: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis sink: publish: %w", err)
	}
	return nil
}

// Name returns the sink identifier.
func (s *RedisSink) Name() string { return "redis" }
