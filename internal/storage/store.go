package storage

import (
	"context"
	"fmt"

	"beacon_collector/internal/models"
)

// DefaultListPageSize is used when ListOptions.Limit is not set.
const DefaultListPageSize = 1000

// Store is a string key-value namespace. Values are opaque strings; the
// collector stores JSON-encoded log records in them.
type Store interface {
	Put(ctx context.Context, key, value string) error
	// Get returns ErrKeyNotFound when the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	// List returns one page of keys. Callers follow ListResult.Cursor until
	// ListResult.Complete is true.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ListOptions selects a page of keys
type ListOptions struct {
	Prefix string
	Cursor string // opaque continuation token, empty for the first page
	Limit  int    // hint, backends may return fewer or (Redis) slightly more
}

// ListResult is one page of a key listing
type ListResult struct {
	Keys     []string
	Cursor   string
	Complete bool
}

// ListAll follows continuation cursors until the listing is exhausted and
// returns every key under prefix, oldest first.
func ListAll(ctx context.Context, store Store, prefix string, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		pageSize = DefaultListPageSize
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0)
	opts := ListOptions{Prefix: prefix, Limit: pageSize}

	for {
		page, err := store.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}

		// SCAN-style backends may repeat a key across pages
		for _, key := range page.Keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}

		if page.Complete {
			break
		}
		if page.Cursor == opts.Cursor {
			return nil, fmt.Errorf("listing did not advance past cursor %q", page.Cursor)
		}
		opts.Cursor = page.Cursor
	}

	models.SortKeys(keys)
	return keys, nil
}
