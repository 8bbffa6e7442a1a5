package tui

import (
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// PromptAction is the outcome of a key at the name prompt.
type PromptAction int

const (
	PromptNone PromptAction = iota
	PromptSubmit
	PromptCancel
)

// NamePrompt collects the player's name at game-over.
type NamePrompt struct {
	max int
	buf []rune
}

// NewNamePrompt creates a prompt accepting at most maxLen runes.
func NewNamePrompt(maxLen int) *NamePrompt {
	return &NamePrompt{max: maxLen}
}

// HandleKey applies one key. Enter submits a non-blank name; Esc cancels.
func (p *NamePrompt) HandleKey(ev *tcell.EventKey) PromptAction {
	switch ev.Key() {
	case tcell.KeyEnter:
		if p.Name() == "" {
			return PromptNone
		}
		return PromptSubmit
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return PromptCancel
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(p.buf) > 0 {
			p.buf = p.buf[:len(p.buf)-1]
		}
	case tcell.KeyRune:
		p.add(ev.Rune())
	}
	return PromptNone
}

// Fill replaces the text, e.g. with a configured default name. Runes the
// prompt would not accept from the keyboard are dropped.
func (p *NamePrompt) Fill(s string) {
	p.Reset()
	for _, r := range s {
		p.add(r)
	}
}

func (p *NamePrompt) add(r rune) {
	if (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') && len(p.buf) < p.max {
		p.buf = append(p.buf, r)
	}
}

// Text is the raw text typed so far.
func (p *NamePrompt) Text() string { return string(p.buf) }

// Name is the trimmed name.
func (p *NamePrompt) Name() string { return strings.TrimSpace(string(p.buf)) }

// Reset clears the prompt.
func (p *NamePrompt) Reset() { p.buf = p.buf[:0] }
