package archive

import (
	"context"

	"beacon_collector/internal/models"
)

// Archiver exports records before they are flushed from the store.
type Archiver interface {
	// Enabled reports whether Archive does anything; callers skip loading
	// records when it returns false.
	Enabled() bool
	// Archive writes records and returns where they were written.
	Archive(ctx context.Context, records []*models.LogRecord) (string, error)
}

// NoopArchiver is used when archiving is switched off.
type NoopArchiver struct{}

func NewNoopArchiver() *NoopArchiver {
	return &NoopArchiver{}
}

func (a *NoopArchiver) Enabled() bool { return false }

func (a *NoopArchiver) Archive(ctx context.Context, records []*models.LogRecord) (string, error) {
	return "", nil
}
