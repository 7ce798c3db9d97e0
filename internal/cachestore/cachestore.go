// Package cachestore persists diagnosis results with a fixed TTL, plus an
// append-only history of live analyses. SQLite keeps cache entries across
// restarts, which matters because every miss costs a headless-browser scrape.
package cachestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/massmedia0301/instakoo-place/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// Store is the process-wide diagnosis cache. Safe for concurrent use through
// database/sql; only the orchestrator writes to it.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger logging.Logger

	// now is swappable in tests to drive expiry.
	now func() time.Time
}

// HistoryEntry is one recorded live analysis.
type HistoryEntry struct {
	ID        string
	CacheKey  string
	Score     int
	Grade     string
	FullText  string
	CreatedAt time.Time
}

// Open opens (or creates) the cache database at path and applies the schema.
func Open(path string, ttl time.Duration, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("cachestore: path is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cachestore: ttl must be positive")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{
		db:     db,
		ttl:    ttl,
		logger: logger.With(logging.Field{Key: "component", Value: "cachestore"}),
		now:    time.Now,
	}, nil
}

// SetClock overrides the store's clock. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the cached payload for key if it exists and has not expired.
// Expired rows are removed lazily on read.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM diagnosis_cache WHERE cache_key = ?`, key).
		Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	if s.now().Unix() >= expiresAt {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM diagnosis_cache WHERE cache_key = ?`, key); err != nil {
			s.logger.Warn("failed to evict expired cache row",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "error", Value: err.Error()})
		}
		return nil, false, nil
	}

	return []byte(payload), true, nil
}

// Set writes payload under key with the store's TTL, replacing any previous
// entry.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	expiresAt := s.now().Add(s.ttl).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnosis_cache (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
		  payload = excluded.payload,
		  expires_at = excluded.expires_at
	`, key, string(payload), expiresAt)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// AppendHistory records one live analysis outcome for key.
func (s *Store) AppendHistory(ctx context.Context, key string, score int, grade, fullText string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnosis_history (id, cache_key, score, grade, full_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), key, score, grade, fullText, s.now().Unix())
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// LatestHistory returns the most recent history entry for key, if any.
func (s *Store) LatestHistory(ctx context.Context, key string) (*HistoryEntry, bool, error) {
	var e HistoryEntry
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cache_key, score, grade, full_text, created_at
		FROM diagnosis_history
		WHERE cache_key = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, key).Scan(&e.ID, &e.CacheKey, &e.Score, &e.Grade, &e.FullText, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("latest history: %w", err)
	}
	e.CreatedAt = time.Unix(createdAt, 0)
	return &e, true, nil
}

// PurgeExpired removes all expired cache rows. Called opportunistically; TTL
// correctness does not depend on it.
func (s *Store) PurgeExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM diagnosis_cache WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return fmt.Errorf("purge expired: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
