// Package repository holds the leaderboard stores.
package repository

import (
	"context"
	"time"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank      int
	ID        string
	Name      string
	Score     float64
	Clocks    int
	Duration  time.Duration
	CreatedAt time.Time
}

// Store provides read/write access to the leaderboard.
//
// Entries are ordered by score desc, then id asc. Ranks are dense: equal
// scores share a rank and the next distinct score gets the next rank.
type Store interface {
	// Insert adds an entry. Returns ErrDuplicate if the id is already stored.
	Insert(ctx context.Context, e Entry) error

	// Rank returns the entry with its current rank.
	// Returns ErrNotFound if the id is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N entries in leaderboard order.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) int

	Close() error
}
