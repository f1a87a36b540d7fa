package payment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDedupeStoreFirstWins(t *testing.T) {
	store := NewMemoryDedupeStore()
	event := &ProcessedWebhookEvent{DedupeKey: "TRX1:20260830120000"}

	fresh, err := store.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestMemoryDedupeStoreDistinctKeys(t *testing.T) {
	store := NewMemoryDedupeStore()

	fresh, err := store.MarkProcessed(context.Background(), &ProcessedWebhookEvent{DedupeKey: "TRX1:a"})
	require.NoError(t, err)
	assert.True(t, fresh)

	// Same trxId, different approvalDt is a different physical event.
	fresh, err = store.MarkProcessed(context.Background(), &ProcessedWebhookEvent{DedupeKey: "TRX1:b"})
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryDedupeStoreConcurrentExactlyOnce(t *testing.T) {
	store := NewMemoryDedupeStore()
	event := &ProcessedWebhookEvent{DedupeKey: "TRX2:20260830120000"}

	const workers = 50
	var freshCount atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(context.Background(), event)
			assert.NoError(t, err)
			if fresh {
				freshCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), freshCount.Load())
}

func TestDBDedupeStoreDelegatesToRepository(t *testing.T) {
	repo := newMemRepo()
	store := NewDBDedupeStore(repo)
	event := &ProcessedWebhookEvent{DedupeKey: "TRX3:20260830120000", TrxID: "TRX3"}

	fresh, err := store.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, fresh)
}
