// Package inmem is a mutex-guarded in-memory implementation of the
// memory store, used for embedding and tests. It mirrors the Redis
// layout: a per-user record map plus a per-user recency index kept in
// store order.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harperclay/recollect/internal/memory"
)

const defaultLimit = 10

type indexEntry struct {
	id    string
	score int64
}

// Store is a thread-safe in-memory implementation of memory.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]*memory.Memory
	index   map[string][]indexEntry
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]map[string]*memory.Memory),
		index:   make(map[string][]indexEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store persists a new memory. Both structures are updated under one
// lock, so the in-memory backend never diverges.
func (s *Store) Store(ctx context.Context, userID string, draft memory.Draft) (*memory.Memory, error) {
	now := s.now()
	m := &memory.Memory{
		ID:         memory.NewID(now),
		UserID:     userID,
		Content:    draft.Content,
		Category:   draft.Category,
		Importance: draft.Importance,
		CreatedAt:  now,
		Tags:       draft.Tags,
		Context:    draft.Context,
		Metadata:   draft.Metadata,
	}
	if m.Importance == 0 {
		m.Importance = memory.DefaultImportance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[userID] == nil {
		s.records[userID] = make(map[string]*memory.Memory)
	}
	s.records[userID][m.ID] = copyMemory(m)
	s.index[userID] = append(s.index[userID], indexEntry{id: m.ID, score: now.UnixMilli()})

	return m, nil
}

// Search filters the limit most recent memories by query.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]*memory.Memory, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*memory.Memory
	for _, m := range s.descending(userID, limit) {
		if memory.MatchesQuery(m, query) {
			result = append(result, m)
		}
	}
	return result, nil
}

// GetRecent returns the limit most recent memories, unfiltered.
func (s *Store) GetRecent(ctx context.Context, userID string, limit int) ([]*memory.Memory, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.descending(userID, limit), nil
}

// GetAll returns every memory for the user, no ordering guarantee.
func (s *Store) GetAll(ctx context.Context, userID string) ([]*memory.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*memory.Memory, 0, len(s.records[userID]))
	for _, m := range s.records[userID] {
		result = append(result, copyMemory(m))
	}
	return result, nil
}

// descending returns up to limit memories in non-increasing creation
// order. The sort is stable, so equal timestamps keep store order.
func (s *Store) descending(userID string, limit int) []*memory.Memory {
	entries := make([]indexEntry, len(s.index[userID]))
	copy(entries, s.index[userID])

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	result := make([]*memory.Memory, 0, len(entries))
	for _, e := range entries {
		if m, ok := s.records[userID][e.id]; ok {
			result = append(result, copyMemory(m))
		}
	}
	return result
}

// copyMemory isolates callers from internal state, like a real store would.
func copyMemory(src *memory.Memory) *memory.Memory {
	dst := *src
	if src.Tags != nil {
		dst.Tags = make([]string, len(src.Tags))
		copy(dst.Tags, src.Tags)
	}
	if src.Metadata != nil {
		dst.Metadata = make(map[string]any, len(src.Metadata))
		for k, v := range src.Metadata {
			dst.Metadata[k] = v
		}
	}
	return &dst
}
