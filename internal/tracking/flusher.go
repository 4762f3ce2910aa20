package tracking

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"beacon_collector/internal/archive"
	"beacon_collector/internal/models"
	"beacon_collector/internal/utils"
)

// ErrUnauthorized is returned when the flush secret does not match
var ErrUnauthorized = errors.New("invalid flush password")

// FlushResult summarises a completed flush
type FlushResult struct {
	Deleted int
	Archive string // archive location, empty when archiving is off
}

// FlusherConfig configures a Flusher
type FlusherConfig struct {
	Verifier    SecretVerifier
	Archiver    archive.Archiver
	Concurrency int // maximum parallel deletes, 0 means unlimited
}

// Flusher deletes every record in the namespace.
type Flusher struct {
	reader      *Reader
	verifier    SecretVerifier
	archiver    archive.Archiver
	concurrency int
	logger      *utils.Logger
}

// NewFlusher creates a Flusher. Keys are enumerated and loaded through reader.
func NewFlusher(reader *Reader, cfg FlusherConfig) *Flusher {
	if cfg.Verifier == nil {
		cfg.Verifier = denyAll{}
	}
	if cfg.Archiver == nil {
		cfg.Archiver = archive.NewNoopArchiver()
	}
	return &Flusher{
		reader:      reader,
		verifier:    cfg.Verifier,
		archiver:    cfg.Archiver,
		concurrency: cfg.Concurrency,
		logger:      utils.NewLogger("flusher"),
	}
}

// Flush verifies secret, then deletes all records concurrently and waits for
// every delete. The first failing delete cancels the rest and is returned;
// deletes that already completed are not rolled back.
func (f *Flusher) Flush(ctx context.Context, secret string) (*FlushResult, error) {
	if !f.verifier.Verify(secret) {
		return nil, ErrUnauthorized
	}

	keys, err := f.reader.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return &FlushResult{}, nil
	}

	result := &FlushResult{}
	if f.archiver.Enabled() {
		location, err := f.archiveKeys(ctx, keys)
		if err != nil {
			return nil, err
		}
		result.Archive = location
	}

	g, gctx := errgroup.WithContext(ctx)
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for _, key := range keys {
		g.Go(func() error {
			return f.reader.store.Delete(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to delete records: %w", err)
	}

	result.Deleted = len(keys)
	f.logger.Info("Flushed records", "deleted", result.Deleted, "archive", result.Archive)
	return result, nil
}

func (f *Flusher) archiveKeys(ctx context.Context, keys []string) (string, error) {
	entries, err := f.reader.Load(ctx, keys)
	if err != nil {
		return "", err
	}

	// Load returns newest first, archives read better oldest first
	records := make([]*models.LogRecord, len(entries))
	for i, entry := range entries {
		records[len(entries)-1-i] = entry.Record
	}

	location, err := f.archiver.Archive(ctx, records)
	if err != nil {
		return "", fmt.Errorf("failed to archive records: %w", err)
	}
	return location, nil
}
