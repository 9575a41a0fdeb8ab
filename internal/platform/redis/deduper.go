package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "taskboard:idempotency"

// NewClient parses a redis:// URL, connects, and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Deduper records idempotency keys in Redis so a replayed request can be
// detected across restarts and instances.
type Deduper struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewDeduper creates a deduper that remembers keys for ttl.
func NewDeduper(client *goredis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

func (d *Deduper) key(subjectID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, subjectID, key)
}

// Add records the key for subjectID if it is not already present. It
// returns true when the key was newly added.
func (d *Deduper) Add(ctx context.Context, subjectID, key string) (bool, error) {
	added, err := d.client.SetNX(ctx, d.key(subjectID, key), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return added, nil
}

// Remove forgets a key so the request may be retried, e.g. after the
// guarded operation failed.
func (d *Deduper) Remove(ctx context.Context, subjectID, key string) error {
	if err := d.client.Del(ctx, d.key(subjectID, key)).Err(); err != nil {
		return fmt.Errorf("failed to remove idempotency key: %w", err)
	}
	return nil
}
