// Package tui draws sessions on a terminal and turns key presses into input.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/clockery/internal/game"
)

// Canvas is the drawing surface. tcell.Screen satisfies it.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Clear()
}

// Layout rows.
const (
	rowHeader = 0
	rowMain   = 2
	rowLifted = 4
	rowSlots  = 5
	rowPlayer = 6
	rowOil    = 8
	rowClocks = 9
	rowPrompt = 11
	rowHelp   = 13

	slotWidth = 9
	gaugeSize = 10
)

// Hand glyphs clockwise from twelve o'clock.
var handGlyphs = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

var (
	styleText    = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleClock   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleSynced  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleDormant = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleOil     = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleAlert   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// View is everything one frame shows.
type View struct {
	Snapshot game.Snapshot
	// Name is the text typed so far at the game-over prompt.
	Name string
	// Status is a one-line message, e.g. the submit result.
	Status string
}

// Renderer draws views on a Canvas.
type Renderer struct {
	canvas Canvas
}

// NewRenderer creates a renderer for canvas.
func NewRenderer(c Canvas) *Renderer {
	return &Renderer{canvas: c}
}

// HandGlyph returns the arrow closest to angle (radians, clockwise from twelve).
func HandGlyph(angle float64) rune {
	a := math.Mod(angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	i := int(math.Round(a/(math.Pi/4))) % len(handGlyphs)
	return handGlyphs[i]
}

// OilGauge renders a band (0..10) as a fixed-width bar.
func OilGauge(band int) string {
	band = max(0, min(band, gaugeSize))
	return "[" + strings.Repeat("#", band) + strings.Repeat(".", gaugeSize-band) + "]"
}

// Draw clears the canvas and draws v.
func (r *Renderer) Draw(v View) {
	r.canvas.Clear()
	s := v.Snapshot

	r.text(0, rowHeader, styleText, fmt.Sprintf("PANIC AT THE CLOCKERY   score %.1f   %s", s.Score, s.State))

	for _, c := range s.Clocks {
		if c.Main {
			r.text(slotX(len(s.Slots)/2), rowMain, styleClock, "main "+face(c))
		}
	}

	for i := range s.Slots {
		label := fmt.Sprintf("  %d", i)
		switch i {
		case s.SpawnSlot:
			label = "spawn"
		case s.OilSlot:
			label = " oil"
		}
		r.text(slotX(i), rowSlots, styleDim, label)
	}
	for _, c := range s.Clocks {
		if c.Main || c.Slot < 0 {
			continue
		}
		row := rowSlots
		if c.Lifted {
			row = rowLifted
		}
		r.text(slotX(c.Slot), row, clockStyle(c), face(c))
	}

	p := s.Player
	r.text(slotX(p.Slot)+2, rowPlayer, stylePlayer, "^")
	r.text(slotX(p.Slot)+4, rowPlayer, styleDim, action(p))

	oilStyle := styleOil
	if s.OilBand <= 2 {
		oilStyle = styleAlert
	}
	r.text(0, rowOil, oilStyle, fmt.Sprintf("oil %s %5.1f  leak %.2f/s", OilGauge(s.OilBand), p.OilLevel, p.OilLeak))
	r.text(0, rowClocks, styleText, fmt.Sprintf("clocks %d/%d  in sync %d", s.Active, s.MaxClocks, s.Synced))

	if s.State == game.StateGameOver {
		r.text(0, rowPrompt, styleAlert, "GAME OVER  enter your name: "+v.Name+"_")
	}
	if v.Status != "" {
		r.text(0, rowPrompt+1, styleDim, v.Status)
	}
	r.text(0, rowHelp, styleDim, "←/→ move  e pick/drop  w wind  s set  space drink  esc quit")
}

func slotX(i int) int { return i * slotWidth }

func face(c game.ClockView) string {
	return "[" + string(HandGlyph(c.Hour)) + string(HandGlyph(c.Minute)) + "]"
}

func clockStyle(c game.ClockView) tcell.Style {
	switch {
	case c.Dormant:
		return styleDormant
	case c.InSync:
		return styleSynced
	default:
		return styleClock
	}
}

func action(p game.Controller) string {
	switch {
	case p.Winding:
		return "winding"
	case p.Setting:
		return "setting"
	case p.Drinking:
		return "drinking"
	case p.Holding():
		return "holding"
	default:
		return ""
	}
}

// text writes s starting at (x, y), clipped to the canvas.
func (r *Renderer) text(x, y int, style tcell.Style, s string) {
	w, h := r.canvas.Size()
	if y < 0 || y >= h {
		return
	}
	for _, ch := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			r.canvas.SetContent(x, y, ch, nil, style)
		}
		x++
	}
}
