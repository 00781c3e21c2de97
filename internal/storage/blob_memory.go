package storage

import (
	"context"
	"sync"
)

// MemoryBlobStore keeps uploaded bytes in process memory and hands out
// memory:// URLs. Used when no object store is configured.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (m *MemoryBlobStore) PutDocument(ctx context.Context, shipmentID, documentSlug, filename, _ string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ObjectKey(shipmentID, documentSlug, filename)
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), content...)
	m.mu.Unlock()
	return "memory://" + key, nil
}

func (m *MemoryBlobStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}
