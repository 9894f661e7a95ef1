package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// VolumeStore implements ports.VolumeStore with per-actor daily counters.
// Keys are scoped to a UTC day and expire on their own, so day rollover
// needs no sweeper.
type VolumeStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewVolumeStore creates a Redis-backed daily volume store.
func NewVolumeStore(client *goredis.Client) *VolumeStore {
	return &VolumeStore{
		client: client,
		prefix: "volume:",
		// Two days covers clock skew between writers around midnight.
		ttl: 48 * time.Hour,
	}
}

func (s *VolumeStore) key(actor, day string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, actor, day)
}

// Add atomically adds micro to the actor's counter for the day and returns
// the new total.
func (s *VolumeStore) Add(ctx context.Context, actor, day string, micro int64) (int64, error) {
	key := s.key(actor, day)
	total, err := s.client.IncrBy(ctx, key, micro).Result()
	if err != nil {
		return 0, fmt.Errorf("redis volume incrby: %w", err)
	}
	// First increment creates the key; give it a bounded lifetime.
	if total == micro {
		s.client.Expire(ctx, key, s.ttl)
	}
	return total, nil
}

// Get returns the actor's counter for the day, zero for an untouched key.
func (s *VolumeStore) Get(ctx context.Context, actor, day string) (int64, error) {
	val, err := s.client.Get(ctx, s.key(actor, day)).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis volume get: %w", err)
	}
	return val, nil
}
