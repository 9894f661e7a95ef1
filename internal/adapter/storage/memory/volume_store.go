// Package memory provides in-process stand-ins for the external stores,
// used when Redis or PostgreSQL are disabled in configuration.
package memory

import (
	"context"
	"sync"
)

// VolumeStore implements ports.VolumeStore with a plain map. Counters
// never expire; stale days just stop being read.
type VolumeStore struct {
	mu     sync.Mutex
	totals map[string]int64
}

// NewVolumeStore creates an in-memory daily volume store.
func NewVolumeStore() *VolumeStore {
	return &VolumeStore{totals: make(map[string]int64)}
}

// Add atomically adds micro to the actor's counter for the day.
func (s *VolumeStore) Add(ctx context.Context, actor, day string, micro int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := actor + ":" + day
	s.totals[key] += micro
	return s.totals[key], nil
}

// Get returns the actor's counter for the day.
func (s *VolumeStore) Get(ctx context.Context, actor, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[actor+":"+day], nil
}
