// Package memory provides an in-memory implementation of storage.RunStore
// for testing and one-shot probe sessions. Runs are lost when the process
// exits. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/probelab/logprobe/pkg/storage"
)

// entry holds a stored run and its position in the LRU list.
type entry struct {
	run     *storage.ProbeRun
	lruElem *list.Element
}

// Store is an in-memory RunStore with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements storage.RunStore at compile time.
var _ storage.RunStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used run is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// SaveRun persists a probe run in memory.
func (s *Store) SaveRun(_ context.Context, run *storage.ProbeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[run.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(run.ID)
	s.entries[run.ID] = &entry{run: run, lruElem: elem}
	return nil
}

// GetRun retrieves a probe run by ID and marks it recently used.
func (s *Store) GetRun(_ context.Context, id string) (*storage.ProbeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	s.lruList.MoveToFront(e.lruElem)
	return e.run, nil
}

// ListRuns returns stored runs matching the options, newest first.
func (s *Store) ListRuns(_ context.Context, opts storage.ListOptions) ([]*storage.ProbeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*storage.ProbeRun
	for _, e := range s.entries {
		if opts.Model != "" && e.run.Model != opts.Model {
			continue
		}
		if opts.Mode != "" && e.run.Mode != opts.Mode {
			continue
		}
		matches = append(matches, e.run)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	limit := storage.ClampLimit(opts.Limit)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []*storage.ProbeRun{}
	}
	return matches, nil
}

// DeleteRun removes a probe run.
func (s *Store) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return storage.ErrNotFound
	}

	s.lruList.Remove(e.lruElem)
	delete(s.entries, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently used run.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}
