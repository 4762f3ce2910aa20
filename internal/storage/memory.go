package storage

import (
	"context"
	"strings"
	"sync"

	"beacon_collector/internal/models"
)

// MemoryStore implements Store in process memory. Listing is keyset
// paginated: the cursor is the last key of the previous page.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]string),
	}
}

// Put stores value under key, replacing any previous value
func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items[key] = value
	return nil
}

// Get returns the value stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, ok := s.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// List returns the next page of keys after opts.Cursor
func (s *MemoryStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListPageSize
	}

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		if !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if opts.Cursor != "" && !models.LessKey(opts.Cursor, key) {
			continue
		}
		keys = append(keys, key)
	}
	models.SortKeys(keys)

	if len(keys) <= limit {
		return &ListResult{Keys: keys, Complete: true}, nil
	}

	page := keys[:limit]
	return &ListResult{Keys: page, Cursor: page[len(page)-1]}, nil
}

// Delete removes key; deleting a missing key is not an error
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	delete(s.items, key)
	return nil
}

// Len returns the number of stored keys
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Ping reports whether the store is open
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
