package chain

import (
	"context"
	"sync"
)

// ResultStore keeps the results of completed flows so later flows can
// reference them.
type ResultStore interface {
	Save(ctx context.Context, chainID, flowID string, result any) error
	Load(ctx context.Context, chainID, flowID string) (any, bool, error)
}

// MemoryStore is the default ResultStore. Results live as long as the store.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]map[string]any)}
}

// Save stores result under chainID/flowID.
func (store *MemoryStore) Save(_ context.Context, chainID, flowID string, result any) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.results[chainID] == nil {
		store.results[chainID] = make(map[string]any)
	}
	store.results[chainID][flowID] = result
	return nil
}

// Load returns the result stored under chainID/flowID.
func (store *MemoryStore) Load(_ context.Context, chainID, flowID string) (any, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	result, ok := store.results[chainID][flowID]
	return result, ok, nil
}
