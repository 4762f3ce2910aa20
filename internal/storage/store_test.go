package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against one backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("put and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "log:1000", `{"type":"pixel"}`))

		value, err := store.Get(ctx, "log:1000")
		require.NoError(t, err)
		assert.Equal(t, `{"type":"pixel"}`, value)
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "log:1000", "first"))
		require.NoError(t, store.Put(ctx, "log:1000", "second"))

		value, err := store.Get(ctx, "log:1000")
		require.NoError(t, err)
		assert.Equal(t, "second", value)
	})

	t.Run("get missing key", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(context.Background(), "log:404")
		assert.True(t, errors.Is(err, ErrKeyNotFound), "got %v", err)
	})

	t.Run("list all follows pages", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		want := make([]string, 0, 25)
		for i := 0; i < 25; i++ {
			key := fmt.Sprintf("log:%d", 1735689600000+i)
			want = append(want, key)
			require.NoError(t, store.Put(ctx, key, "{}"))
		}
		require.NoError(t, store.Put(ctx, "other:1", "{}"))

		keys, err := ListAll(ctx, store, "log:", 4)
		require.NoError(t, err)
		assert.Equal(t, want, keys)
	})

	t.Run("list empty namespace", func(t *testing.T) {
		store := newStore(t)

		keys, err := ListAll(context.Background(), store, "log:", 10)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "log:1", "{}"))
		require.NoError(t, store.Delete(ctx, "log:1"))
		require.NoError(t, store.Delete(ctx, "log:1"))

		_, err := store.Get(ctx, "log:1")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}

// pagedStore serves a fixed key list two keys at a time.
type pagedStore struct {
	MemoryStore
	keys  []string
	calls int
}

func (p *pagedStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	p.calls++
	start := 0
	if opts.Cursor != "" {
		fmt.Sscanf(opts.Cursor, "%d", &start)
	}
	end := start + 2
	if end >= len(p.keys) {
		return &ListResult{Keys: p.keys[start:], Complete: true}, nil
	}
	return &ListResult{Keys: p.keys[start:end], Cursor: fmt.Sprint(end)}, nil
}

func TestListAll_FollowsCursorsAndSorts(t *testing.T) {
	store := &pagedStore{
		keys: []string{"log:1003", "log:999", "log:1001", "log:1001", "log:1000"},
	}

	keys, err := ListAll(context.Background(), store, "log:", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"log:999", "log:1000", "log:1001", "log:1003"}, keys)
	assert.Equal(t, 3, store.calls)
}

// stuckStore never advances its cursor.
type stuckStore struct {
	MemoryStore
}

func (s *stuckStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return &ListResult{Keys: []string{"log:1"}, Cursor: "7"}, nil
}

func TestListAll_DetectsStuckCursor(t *testing.T) {
	_, err := ListAll(context.Background(), &stuckStore{}, "log:", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not advance")
}

type failingStore struct {
	MemoryStore
}

func (f *failingStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return nil, errors.New("backend unavailable")
}

func TestListAll_PropagatesErrors(t *testing.T) {
	_, err := ListAll(context.Background(), &failingStore{}, "log:", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}
