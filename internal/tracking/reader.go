package tracking

import (
	"context"
	"errors"
	"fmt"

	"beacon_collector/internal/models"
	"beacon_collector/internal/storage"
	"beacon_collector/internal/utils"
)

// Entry is a stored record together with its key
type Entry struct {
	Key    string
	Record *models.LogRecord
}

// ReaderConfig configures a Reader
type ReaderConfig struct {
	KeyPrefix string
	PageSize  int
}

// Reader loads every stored record for the dashboard.
type Reader struct {
	store    storage.Store
	prefix   string
	pageSize int
	logger   *utils.Logger
}

// NewReader creates a Reader on store
func NewReader(store storage.Store, cfg ReaderConfig) *Reader {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = models.DefaultKeyPrefix
	}
	return &Reader{
		store:    store,
		prefix:   cfg.KeyPrefix,
		pageSize: cfg.PageSize,
		logger:   utils.NewLogger("reader"),
	}
}

// Keys lists every record key, oldest first.
func (r *Reader) Keys(ctx context.Context) ([]string, error) {
	return storage.ListAll(ctx, r.store, r.prefix, r.pageSize)
}

// Records returns every stored record, newest first.
func (r *Reader) Records(ctx context.Context) ([]Entry, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return nil, err
	}
	return r.Load(ctx, keys)
}

// Load fetches keys in reverse order. Keys that disappeared since they were
// listed, or whose value is not a record, are skipped.
func (r *Reader) Load(ctx context.Context, keys []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))

	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]

		value, err := r.store.Get(ctx, key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			r.logger.Warn("Record vanished between list and get, skipping", "key", key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}

		rec, err := models.UnmarshalLogRecord(value)
		if err != nil {
			r.logger.Warn("Skipping unreadable record", "key", key, "error", err)
			continue
		}

		entries = append(entries, Entry{Key: key, Record: rec})
	}

	return entries, nil
}
