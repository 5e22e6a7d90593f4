package repository

import (
	"context"
	"slices"
	"sync"
)

// Blobs is a keyed byte store. Save writes every entry or none of them.
type Blobs interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, blobs map[string][]byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryBlobs is the process-local backend used by default and in tests.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: map[string][]byte{}}
}

func (m *MemoryBlobs) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(body), true, nil
}

func (m *MemoryBlobs) Save(ctx context.Context, blobs map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, body := range blobs {
		m.blobs[key] = slices.Clone(body)
	}
	return nil
}

func (m *MemoryBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

// Keys lists the stored keys in sorted order.
func (m *MemoryBlobs) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.blobs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
