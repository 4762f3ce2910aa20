package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DBConfig holds database configuration
type DBConfig struct {
	DSN string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() DBConfig {
	return DBConfig{
		DSN: "postgres://postgres@localhost:5432/collector?sslmode=disable",

		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// PostgresStore implements Store on a single kv_entries table. Listing is
// keyset paginated in key order; the cursor is the last key returned.
type PostgresStore struct {
	conn *sqlx.DB
}

// NewPostgresStore connects to the database and creates the table if needed
func NewPostgresStore(ctx context.Context, cfg DBConfig) (*PostgresStore, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	store := &PostgresStore{conn: conn}
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return store, nil
}

// EnsureSchema creates the kv_entries table
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return nil
}

// Put upserts value under key
func (s *PostgresStore) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := s.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key
func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// List returns up to opts.Limit keys greater than opts.Cursor
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListPageSize
	}

	query := `
		SELECT key FROM kv_entries
		WHERE key LIKE $1 ESCAPE '\' AND key > $2
		ORDER BY key
		LIMIT $3
	`

	// Fetch one extra row to learn whether another page exists
	var keys []string
	if err := s.conn.SelectContext(ctx, &keys, query, likePrefix(opts.Prefix), opts.Cursor, limit+1); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	if len(keys) <= limit {
		return &ListResult{Keys: keys, Complete: true}, nil
	}

	keys = keys[:limit]
	return &ListResult{Keys: keys, Cursor: keys[len(keys)-1]}, nil
}

// Delete removes key; deleting a missing key is not an error
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Ping checks if the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.conn.Close()
}

// likePrefix escapes LIKE metacharacters in prefix and appends the wildcard.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
