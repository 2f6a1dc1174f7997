package cache

import (
	"context"
	"sync"

	"github.com/heronhoga/bars-fe/model"
)

// MemoryStore is the process-local Store used when redis is not configured.
type MemoryStore struct {
	mu     sync.RWMutex
	recent map[string][]string
	drafts map[string]model.Beat
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recent: make(map[string][]string),
		drafts: make(map[string]model.Beat),
	}
}

func (s *MemoryStore) Recent(_ context.Context, visitor string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.recent[visitor]...), nil
}

func (s *MemoryStore) AddRecent(ctx context.Context, visitor, query string) ([]string, error) {
	query = normalizeQuery(query)
	if query == "" {
		return s.Recent(ctx, visitor)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := pushRecent(s.recent[visitor], query)
	s.recent[visitor] = list
	return append([]string(nil), list...), nil
}

func (s *MemoryStore) ClearRecent(_ context.Context, visitor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recent, visitor)
	return nil
}

func (s *MemoryStore) SaveDraft(_ context.Context, visitor string, beat model.Beat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[visitor] = beat
	return nil
}

func (s *MemoryStore) Draft(_ context.Context, visitor, beatID string) (model.Beat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	beat, ok := s.drafts[visitor]
	if !ok || beat.ID != beatID {
		return model.Beat{}, ErrNotFound
	}
	return beat, nil
}

func (s *MemoryStore) DeleteDraft(_ context.Context, visitor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, visitor)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
