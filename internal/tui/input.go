package tui

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/clockery/internal/game"
)

// InputMapper folds key events into per-tick game.Input. Terminals report
// presses (and auto-repeats) but never releases, so a held action counts as
// held while its latest press is within the hold window. Safe for a
// key-polling goroutine and a frame loop to share.
type InputMapper struct {
	mu   sync.Mutex
	hold time.Duration

	left, right, interact bool
	wind, set, drink      time.Time
	quit                  bool
}

// NewInputMapper creates a mapper with the given hold window.
func NewInputMapper(hold time.Duration) *InputMapper {
	return &InputMapper{hold: hold}
}

// HandleKey records one key press seen at now.
func (m *InputMapper) HandleKey(ev *tcell.EventKey, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.Key() {
	case tcell.KeyLeft:
		m.left = true
	case tcell.KeyRight:
		m.right = true
	case tcell.KeyEnter:
		m.interact = true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		m.quit = true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'a', 'A':
			m.left = true
		case 'd', 'D':
			m.right = true
		case 'e', 'E':
			m.interact = true
		case 'w', 'W':
			m.wind = now
		case 's', 'S':
			m.set = now
		case ' ':
			m.drink = now
		case 'q', 'Q':
			m.quit = true
		}
	}
}

// Sample returns the input for the tick at now and consumes the edges.
func (m *InputMapper) Sample(now time.Time) game.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := game.Input{
		Left:     m.left,
		Right:    m.right,
		Interact: m.interact,
		Wind:     m.held(m.wind, now),
		Set:      m.held(m.set, now),
		Drink:    m.held(m.drink, now),
	}
	m.left, m.right, m.interact = false, false, false
	return in
}

// Reset forgets all pending and held input.
func (m *InputMapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.left, m.right, m.interact = false, false, false
	m.wind, m.set, m.drink = time.Time{}, time.Time{}, time.Time{}
	m.quit = false
}

// Quit reports whether the player asked to leave.
func (m *InputMapper) Quit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quit
}

func (m *InputMapper) held(last, now time.Time) bool {
	return !last.IsZero() && now.Sub(last) <= m.hold
}
