package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps runs in a map. Records are copied on the way in and
// out so callers cannot mutate stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Record
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Record)}
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) List(ctx context.Context, crate string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.runs {
		if crate == "" || rec.Crate == crate {
			out = append(out, &rec)
		}
	}
	sortNewestFirst(out)
	return truncate(out, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func sortNewestFirst(recs []*Record) {
	slices.SortFunc(recs, func(a, b *Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func truncate(recs []*Record, limit int) []*Record {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

var _ Store = (*MemoryStore)(nil)
