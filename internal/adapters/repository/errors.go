package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("entry not found")
	ErrDuplicate    = errors.New("entry already stored")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
