package policy

import (
	"context"
	"sync"
)

// MemoryPersister keeps documents in process memory. It backs tests and
// single-node deployments that do not need durability.
type MemoryPersister struct {
	mu   sync.RWMutex
	docs map[int64][]byte
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{docs: make(map[int64][]byte)}
}

// Load returns the stored bytes for a group, if any.
func (m *MemoryPersister) Load(_ context.Context, groupID int64) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[groupID]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Save overwrites the stored bytes for a group.
func (m *MemoryPersister) Save(_ context.Context, groupID int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.docs[groupID] = stored
	return nil
}

// Seed stores raw bytes for a group directly, bypassing Encode. Tests use it
// to stage legacy or partially shaped documents.
func (m *MemoryPersister) Seed(groupID int64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[groupID] = append([]byte(nil), data...)
}
