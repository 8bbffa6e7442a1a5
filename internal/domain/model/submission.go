// Package model contains domain models passed between layers.
package model

import "time"

// Submission is a finished game's score as posted by a client.
type Submission struct {
	ID         string        // idempotency key, a uuid
	Name       string        // player name, trimmed
	Score      float64       // seconds of score earned
	Duration   time.Duration // session length, zero when unknown
	Clocks     int           // ordinary clocks reached, zero when unknown
	ReceivedAt time.Time
}

// Entry is a validated submission ready to be stored.
type Entry struct {
	ID        string
	Name      string
	Score     float64
	Duration  time.Duration
	Clocks    int
	CreatedAt time.Time
}
