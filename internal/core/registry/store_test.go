package registry

import (
	"context"
	"errors"
	"sync"
)

type stubStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	readErr  error
	writeErr error
}

func newStubStore() *stubStore {
	return &stubStore{docs: make(map[string][]byte)}
}

func (s *stubStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.docs[key]
	if !ok {
		return nil, errors.New("missing document")
	}
	return append([]byte(nil), data...), nil
}

func (s *stubStore) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.docs[key] = append([]byte(nil), data...)
	return nil
}
