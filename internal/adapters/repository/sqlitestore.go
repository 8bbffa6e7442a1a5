package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/okian/clockery/pkg/metrics"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteStore keeps the leaderboard in a SQLite file so it survives restarts.
type SQLiteStore struct {
	db            *sql.DB
	busyTimeoutMS int
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeoutMS: 5000}
	for _, opt := range opts {
		opt(s)
	}

	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps writes serialized and an in-memory database shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	s.db = db

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`PRAGMA busy_timeout = %d;`, s.busyTimeoutMS),
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			score REAL NOT NULL,
			score_fp INTEGER NOT NULL,
			clocks INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_rank ON entries(score_fp DESC, id ASC);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Insert implements Store.Insert.
func (s *SQLiteStore) Insert(ctx context.Context, e Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreInsertLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entries (id, name, score, score_fp, clocks, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Score, int64(toFixedPoint(e.Score)), e.Clocks, e.Duration.Milliseconds(), created.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	metrics.UpdateLeaderboardEntries(s.Count(ctx))
	return nil
}

// Rank implements Store.Rank.
func (s *SQLiteStore) Rank(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var (
		e       Entry
		fp      int64
		durMS   int64
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, score, score_fp, clocks, duration_ms, created_at FROM entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Score, &fp, &e.Clocks, &durMS, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("query entry: %w", err)
	}
	e.Duration = time.Duration(durMS) * time.Millisecond
	e.CreatedAt = time.Unix(0, created)

	var above int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT score_fp) FROM entries WHERE score_fp > ?`, fp,
	).Scan(&above); err != nil {
		return Entry{}, fmt.Errorf("query rank: %w", err)
	}
	e.Rank = above + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, score_fp, clocks, duration_ms, created_at
		 FROM entries ORDER BY score_fp DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query top: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	rank := 0
	var prev int64
	for rows.Next() {
		var (
			e       Entry
			fp      int64
			durMS   int64
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &fp, &e.Clocks, &durMS, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if rank == 0 || fp != prev {
			rank++
			prev = fp
		}
		e.Rank = rank
		e.Duration = time.Duration(durMS) * time.Millisecond
		e.CreatedAt = time.Unix(0, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Count implements Store.Count. Errors count as an empty board.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
