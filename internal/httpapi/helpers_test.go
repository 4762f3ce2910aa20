package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"beacon_collector/internal/archive"
	"beacon_collector/internal/config"
	"beacon_collector/internal/models"
	"beacon_collector/internal/storage"
)

var errBackend = errors.New("backend unavailable")

// brokenStore fails the operations whose flag is set.
type brokenStore struct {
	*storage.MemoryStore
	failPut    bool
	failList   bool
	failDelete bool
}

func (s *brokenStore) Put(ctx context.Context, key, value string) error {
	if s.failPut {
		return errBackend
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *brokenStore) List(ctx context.Context, opts storage.ListOptions) (*storage.ListResult, error) {
	if s.failList {
		return nil, errBackend
	}
	return s.MemoryStore.List(ctx, opts)
}

func (s *brokenStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return errBackend
	}
	return s.MemoryStore.Delete(ctx, key)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("FLUSH_PASSWORD", "flush2025")
	t.Setenv("FLUSH_PASSWORD_HASH", "")
	t.Setenv("TRACKING_MAX_BODY_BYTES", "1024")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newTestDeps(t *testing.T, store storage.Store) *Dependencies {
	t.Helper()
	deps, err := NewDependencies(store, archive.NewNoopArchiver(), testConfig(t))
	require.NoError(t, err)
	return deps
}

func newTestHandler(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	return NewHandler(newTestDeps(t, store))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// storedRecords returns every record in store, oldest first.
func storedRecords(t *testing.T, store storage.Store) []*models.LogRecord {
	t.Helper()
	ctx := context.Background()
	keys, err := storage.ListAll(ctx, store, models.DefaultKeyPrefix, 0)
	require.NoError(t, err)

	records := make([]*models.LogRecord, 0, len(keys))
	for _, key := range keys {
		value, err := store.Get(ctx, key)
		require.NoError(t, err)
		rec, err := models.UnmarshalLogRecord(value)
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

// putRecord stores rec under the key for ms.
func putRecord(t *testing.T, store storage.Store, ms int64, rec *models.LogRecord) {
	t.Helper()
	value, err := rec.Marshal()
	require.NoError(t, err)
	key := models.StorageKey(models.DefaultKeyPrefix, time.UnixMilli(ms))
	require.NoError(t, store.Put(context.Background(), key, value))
}
