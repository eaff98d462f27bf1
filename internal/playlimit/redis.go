package playlimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "playlimit"}
}

func (r *Redis) key(wallet string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, wallet, dayKey(now))
}

// TryConsume sets the day key with SETNX. The key expires at the next UTC
// midnight so the store never holds more than one day per wallet.
func (r *Redis) TryConsume(ctx context.Context, wallet string, now time.Time) (bool, error) {
	ttl := NextReset(now).Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}

	ok, err := r.client.SetNX(ctx, r.key(wallet, now), now.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume play: %w", err)
	}

	return ok, nil
}

func (r *Redis) Release(ctx context.Context, wallet string, now time.Time) error {
	if err := r.client.Del(ctx, r.key(wallet, now)).Err(); err != nil {
		return fmt.Errorf("failed to release play: %w", err)
	}
	return nil
}

func (r *Redis) Status(ctx context.Context, wallet string, now time.Time) (Status, error) {
	n, err := r.client.Exists(ctx, r.key(wallet, now)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("failed to read play status: %w", err)
	}

	if n > 0 {
		return Status{Available: false, NextAvailableAt: NextReset(now)}, nil
	}
	return Status{Available: true, NextAvailableAt: now}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
