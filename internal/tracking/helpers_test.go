package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"beacon_collector/internal/storage"
)

var errBackend = errors.New("backend unavailable")

// faultyStore wraps a MemoryStore and fails selected operations.
type faultyStore struct {
	*storage.MemoryStore

	failPut    bool
	failList   bool
	failGetKey string
	dropGetKey string
	failDelKey string

	deletes atomic.Int32
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *faultyStore) Put(ctx context.Context, key, value string) error {
	if s.failPut {
		return errBackend
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *faultyStore) Get(ctx context.Context, key string) (string, error) {
	if key == s.failGetKey {
		return "", errBackend
	}
	if key == s.dropGetKey {
		return "", storage.ErrKeyNotFound
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *faultyStore) List(ctx context.Context, opts storage.ListOptions) (*storage.ListResult, error) {
	if s.failList {
		return nil, errBackend
	}
	return s.MemoryStore.List(ctx, opts)
}

func (s *faultyStore) Delete(ctx context.Context, key string) error {
	s.deletes.Add(1)
	if key == s.failDelKey {
		return errBackend
	}
	return s.MemoryStore.Delete(ctx, key)
}

// stepClock returns a new millisecond on every call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Millisecond)
		return t
	}
}
