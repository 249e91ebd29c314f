package keygen

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/tracker/dao/model"
)

// fakeCounter hands out sequence numbers without a database.
type fakeCounter struct {
	mu     sync.Mutex
	values map[model.CounterKind]int64
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: make(map[model.CounterKind]int64)}
}

func (f *fakeCounter) issue(_ context.Context, _ uint, kind model.CounterKind) (string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[kind]++
	return "ENG", f.values[kind], nil
}

func TestKeyFormats(t *testing.T) {
	ctx := context.Background()
	service := NewService(nil)
	service.issue = newFakeCounter().issue

	epicKey, err := service.NextEpicKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ENG-EPIC-1", epicKey)

	itemKey, err := service.NextWorkItemKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ENG-1", itemKey)

	itemKey, err = service.NextWorkItemKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ENG-2", itemKey)
}

func TestConcurrentIssuanceIsUnique(t *testing.T) {
	ctx := context.Background()
	service := NewService(nil)
	service.issue = newFakeCounter().issue

	const workers = 32

	var wg sync.WaitGroup
	keys := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := service.NextWorkItemKey(ctx, 1)
			assert.NoError(t, err)
			keys <- key
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]bool)
	for key := range keys {
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	assert.Len(t, seen, workers)
}
