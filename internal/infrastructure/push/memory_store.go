package push

import (
	"context"
	"sync"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// MemoryStore keeps subscriptions for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]domain.PushSubscription
}

var _ ports.PushSubscriptionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]domain.PushSubscription)}
}

func (s *MemoryStore) Put(_ context.Context, username string, sub domain.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[username] = sub
	return nil
}

func (s *MemoryStore) Get(_ context.Context, username string) (domain.PushSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[username]
	if !ok {
		return domain.PushSubscription{}, domain.ErrNoSubscription
	}
	return sub, nil
}
