package game

import "strings"

// Result is what a finished session hands to the leaderboard.
type Result struct {
	SessionID string
	Name      string
	Score     float64
	Duration  float64
	Clocks    int
}

// SetPlayerName records the name entered at game-over.
func (s *Session) SetPlayerName(name string) {
	s.name = strings.TrimSpace(name)
}

// PlayerName returns the recorded name.
func (s *Session) PlayerName() string { return s.name }

// Result returns the final score and name. It is available from game-over
// until the next StartSession, and requires a non-empty name.
func (s *Session) Result() (Result, error) {
	if !s.over {
		return Result{}, ErrNotGameOver
	}
	if s.name == "" {
		return Result{}, ErrEmptyName
	}
	return Result{
		SessionID: s.id,
		Name:      s.name,
		Score:     s.score,
		Duration:  s.elapsed,
		Clocks:    s.reached,
	}, nil
}
