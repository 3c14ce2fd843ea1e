package content

import (
	"context"
	"sync"
)

// MemoryStore serves a fixed set of entries. It is used for previews and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStore copies entries into a new store, keeping their order.
func NewMemoryStore(entries ...Entry) *MemoryStore {
	s := &MemoryStore{}
	for i := range entries {
		s.Add(entries[i])
	}
	return s
}

// Add appends an entry, deriving Dir and Slug from Path when unset.
func (s *MemoryStore) Add(e Entry) {
	c := e.clone()
	if c.Dir == "" || c.Slug == "" {
		c.Dir, c.Slug = splitLogical(c.Path)
	}
	s.mu.Lock()
	s.entries = append(s.entries, &c)
	s.mu.Unlock()
}

func (s *MemoryStore) Fetch(ctx context.Context, q Query) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryFailed("query cancelled", err)
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.apply(s.entries), nil
}

func (s *MemoryStore) Get(ctx context.Context, p string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryFailed("query cancelled", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Path == p {
			c := e.clone()
			return &c, nil
		}
	}
	return nil, notFound(p)
}
