package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeStore_AddAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewVolumeStore(client)
	ctx := context.Background()

	// Untouched counter reads zero.
	total, err := store.Get(ctx, "alice", "2026-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	total, err = store.Add(ctx, "alice", "2026-03-01", 1_000_000)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, total)

	total, err = store.Add(ctx, "alice", "2026-03-01", 500_000)
	require.NoError(t, err)
	assert.EqualValues(t, 1_500_000, total)

	total, err = store.Get(ctx, "alice", "2026-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 1_500_000, total)
}

func TestVolumeStore_ActorsAndDaysAreIndependent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewVolumeStore(client)
	ctx := context.Background()

	_, err := store.Add(ctx, "alice", "2026-03-01", 100)
	require.NoError(t, err)
	_, err = store.Add(ctx, "bob", "2026-03-01", 200)
	require.NoError(t, err)
	_, err = store.Add(ctx, "alice", "2026-03-02", 300)
	require.NoError(t, err)

	total, err := store.Get(ctx, "alice", "2026-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 100, total)

	total, err = store.Get(ctx, "bob", "2026-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 200, total)

	total, err = store.Get(ctx, "alice", "2026-03-02")
	require.NoError(t, err)
	assert.EqualValues(t, 300, total)
}

func TestVolumeStore_CountersExpire(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewVolumeStore(client)
	ctx := context.Background()

	_, err := store.Add(ctx, "alice", "2026-03-01", 100)
	require.NoError(t, err)

	s.FastForward(49 * time.Hour)

	total, err := store.Get(ctx, "alice", "2026-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 0, total, "stale day counters expire on their own")
}
