package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/go-redis/redis/v8"
)

// Key is the redis hash holding the latest rover state. Updates are also
// announced on the channel of the same name.
const Key = "rover"

// RedisSink mirrors drive events into redis.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects to addr and checks the server answers.
func NewRedisSink(ctx context.Context, addr string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	debug.Info("Telemetry: connecting to redis at %s", addr)
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &RedisSink{client: client}, nil
}

// Write stores the state and publishes "<key> <phase>".
func (s *RedisSink) Write(ctx context.Context, e Event) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, Key, fields(e))
	pipe.Publish(ctx, Key, e.Phase)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish rover state: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
