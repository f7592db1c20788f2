package feature

import (
	"context"
	"errors"
	"sync"
)

// ErrUnknownUser indicates the provider has no signals for the user.
var ErrUnknownUser = errors.New("unknown user")

// Provider supplies the behavioral signal snapshot for a user. It is
// the core's only I/O dependency; implementations typically front a
// feature store or analytics pipeline.
type Provider interface {
	Features(ctx context.Context, userID string) (Snapshot, error)
}

// StaticProvider serves snapshots from an in-memory map. Used in tests
// and for demo wiring; safe for concurrent use.
type StaticProvider struct {
	mu    sync.RWMutex
	users map[string]Snapshot
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{users: make(map[string]Snapshot)}
}

// Set stores the snapshot for a user, replacing any previous one.
func (p *StaticProvider) Set(userID string, s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = s
}

// Features returns the stored snapshot, or ErrUnknownUser.
func (p *StaticProvider) Features(_ context.Context, userID string) (Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.users[userID]
	if !ok {
		return Empty(), ErrUnknownUser
	}
	return s, nil
}
