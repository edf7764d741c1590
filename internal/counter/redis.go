package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a Redis instance using INCR, which is atomic
// server-side. This is the implementation to use when several monitor
// instances share one counter.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance at addr and verifies the
// connection with a ping before returning.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Increment bumps the counter for key with INCR. Connectivity failures
// are reported as ErrUnavailable; server-side errors (for example a key
// holding the wrong type) are not.
func (r *Redis) Increment(ctx context.Context, key string) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		var rerr redis.Error
		if errors.As(err, &rerr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("increment %q: %w", key, err)
		}
		return 0, fmt.Errorf("increment %q: %w: %w", key, ErrUnavailable, err)
	}
	return count, nil
}
