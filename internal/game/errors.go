package game

import "errors"

// Sentinel kinds for session errors.
var (
	ErrInvalidTuning   = errors.New("invalid tuning")
	ErrEmptyName       = errors.New("player name is empty")
	ErrNotGameOver     = errors.New("session is not over")
	ErrSessionInactive = errors.New("session is not active")
)
