package tracking

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"beacon_collector/internal/models"
	"beacon_collector/internal/storage"
	"beacon_collector/internal/utils"
)

// Beacon is the request data a record is built from. The HTTP layer fills
// it in; header values are empty when the header was absent.
type Beacon struct {
	ClientIP  string
	UserAgent string
	Referer   string
	Origin    string
	Query     url.Values
	Body      []byte
}

// WriterConfig configures a Writer
type WriterConfig struct {
	KeyPrefix string
	Location  *time.Location   // timezone of the human-readable timestamp
	Now       func() time.Time // defaults to time.Now
}

// Writer turns beacons into log records and persists them, one Put per
// beacon under a millisecond key.
type Writer struct {
	store  storage.Store
	prefix string
	loc    *time.Location
	now    func() time.Time
	logger *utils.Logger
}

// NewWriter creates a Writer on store
func NewWriter(store storage.Store, cfg WriterConfig) *Writer {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = models.DefaultKeyPrefix
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Writer{
		store:  store,
		prefix: cfg.KeyPrefix,
		loc:    cfg.Location,
		now:    cfg.Now,
		logger: utils.NewLogger("writer"),
	}
}

// WritePixel records a page view or action reported through the pixel.
// The record is returned even when persisting it fails.
func (w *Writer) WritePixel(ctx context.Context, b Beacon) (*models.LogRecord, error) {
	session := b.Query.Get("session")
	if session == "" {
		session = models.UnknownSession
	}

	rec := &models.LogRecord{
		Kind:      models.KindPixel,
		ClientIP:  models.StringPtr(b.ClientIP),
		UserAgent: models.StringPtr(b.UserAgent),
		Referer:   models.StringPtr(b.Referer),
		Session:   &session,
		Section:   models.StringPtr(b.Query.Get("section")),
		Action:    models.StringPtr(b.Query.Get("action")),
	}
	return rec, w.persist(ctx, rec)
}

// WriteEvent records a script event. A body that is not valid JSON is
// stored as {}.
func (w *Writer) WriteEvent(ctx context.Context, b Beacon) (*models.LogRecord, error) {
	body := models.ParseEventBody(b.Body)
	if !body.Parsed() {
		w.logger.Debug("Event body is not JSON, storing empty object", "error", body.Err())
	}

	rec := &models.LogRecord{
		Kind:      models.KindScript,
		ClientIP:  models.StringPtr(b.ClientIP),
		UserAgent: models.StringPtr(b.UserAgent),
		Referer:   models.StringPtr(b.Referer),
		Origin:    models.StringPtr(b.Origin),
		Body:      body.JSON(),
	}
	return rec, w.persist(ctx, rec)
}

func (w *Writer) persist(ctx context.Context, rec *models.LogRecord) error {
	now := w.now()
	rec.Timestamp = models.FormatTimestamp(now, w.loc)

	value, err := rec.Marshal()
	if err != nil {
		return err
	}

	key := models.StorageKey(w.prefix, now)
	if err := w.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to store %s record: %w", rec.Kind, err)
	}

	w.logger.Debug("Stored record", "key", key, "type", rec.Kind)
	return nil
}
