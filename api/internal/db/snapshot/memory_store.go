package snapshot

import (
	"context"
	"sync"

	"github.com/reacthost/console/api/internal/core/domain"
)

// MemoryStore is an ephemeral backend for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// Put seeds raw bytes, bypassing SaveErr.
func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }
