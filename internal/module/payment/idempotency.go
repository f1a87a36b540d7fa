package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore is an atomic check-and-set over webhook dedupe keys.
// MarkProcessed returns true exactly once per key across all concurrent
// callers; every other call for the same key returns false.
type DedupeStore interface {
	MarkProcessed(ctx context.Context, event *ProcessedWebhookEvent) (bool, error)
}

// dbDedupeStore backs the dedupe set with the processed_webhook_events
// table. The unique index on dedupe_key does the arbitration.
type dbDedupeStore struct {
	repo Repository
}

// NewDBDedupeStore creates a DedupeStore backed by the payment repository.
func NewDBDedupeStore(repo Repository) DedupeStore {
	return &dbDedupeStore{repo: repo}
}

func (s *dbDedupeStore) MarkProcessed(ctx context.Context, event *ProcessedWebhookEvent) (bool, error) {
	return s.repo.InsertWebhookEvent(ctx, event)
}

// redisDedupeStore backs the dedupe set with Redis SET NX. Keys expire
// after the retention window, which must comfortably exceed the gateway's
// redelivery horizon.
type redisDedupeStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

const dedupeKeyPrefix = "webhook:dedupe:"

// NewRedisDedupeStore creates a DedupeStore backed by Redis.
func NewRedisDedupeStore(client redis.UniversalClient, retention time.Duration) DedupeStore {
	return &redisDedupeStore{client: client, retention: retention}
}

func (s *redisDedupeStore) MarkProcessed(ctx context.Context, event *ProcessedWebhookEvent) (bool, error) {
	fresh, err := s.client.SetNX(ctx, dedupeKeyPrefix+event.DedupeKey, event.Data, s.retention).Result()
	if err != nil {
		return false, fmt.Errorf("mark webhook processed: %w", err)
	}
	return fresh, nil
}

// memoryDedupeStore is a process-local DedupeStore for tests and
// single-instance deployments.
type memoryDedupeStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDedupeStore creates an in-memory DedupeStore.
func NewMemoryDedupeStore() DedupeStore {
	return &memoryDedupeStore{seen: make(map[string]struct{})}
}

func (s *memoryDedupeStore) MarkProcessed(_ context.Context, event *ProcessedWebhookEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[event.DedupeKey]; ok {
		return false, nil
	}
	s.seen[event.DedupeKey] = struct{}{}
	return true, nil
}
