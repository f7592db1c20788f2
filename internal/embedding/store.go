package embedding

import "sync"

// Store holds the current embedding per user. Superseded versions are
// overwritten, never retained.
//
// The in-memory implementation is the default; chromemstore provides a
// persistent alternative for deployments that need embeddings to
// survive restarts.
type Store interface {
	// Put stores or replaces the user's embedding.
	Put(e UserEmbedding) error

	// Get returns the user's embedding, or false when absent.
	Get(userID string) (UserEmbedding, bool)

	// All returns every stored embedding. Order is unspecified.
	All() []UserEmbedding

	// Delete removes the user's embedding. Unknown ids are a no-op.
	Delete(userID string)

	// Len returns the number of stored embeddings.
	Len() int
}

// MemoryStore is the default process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]UserEmbedding
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]UserEmbedding)}
}

// Put stores or replaces the user's embedding.
func (m *MemoryStore) Put(e UserEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[e.UserID] = e
	return nil
}

// Get returns the user's embedding, or false when absent.
func (m *MemoryStore) Get(userID string) (UserEmbedding, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[userID]
	return e, ok
}

// All returns every stored embedding.
func (m *MemoryStore) All() []UserEmbedding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserEmbedding, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	return out
}

// Delete removes the user's embedding.
func (m *MemoryStore) Delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID)
}

// Len returns the number of stored embeddings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
