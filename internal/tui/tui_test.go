package tui_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/internal/tui"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(80, 24)
	return screen
}

func row(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := range w {
		ch, _, _, _ := screen.GetContent(x, y)
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

func screenText(screen tcell.Screen) string {
	_, h := screen.Size()
	lines := make([]string, h)
	for y := range h {
		lines[y] = row(screen, y)
	}
	return strings.Join(lines, "\n")
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }
func char(r rune) *tcell.EventKey     { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func TestRenderer(t *testing.T) {
	Convey("Given a renderer on a simulation screen", t, func() {
		screen := newScreen(t)
		defer screen.Fini()
		r := tui.NewRenderer(screen)

		s := game.NewSession(game.WithSeed(1))
		s.StartSession()
		s.Tick(game.Input{}, 1.0/60)

		Convey("When a playing session is drawn", func() {
			r.Draw(tui.View{Snapshot: s.Snapshot()})
			text := screenText(screen)

			Convey("Then the header, slots, gauge and clock count show", func() {
				So(text, ShouldContainSubstring, "PANIC AT THE CLOCKERY")
				So(text, ShouldContainSubstring, "spawn")
				So(text, ShouldContainSubstring, "oil [##########]")
				So(text, ShouldContainSubstring, "clocks 1/6")
				So(text, ShouldContainSubstring, "main [")
				So(text, ShouldNotContainSubstring, "GAME OVER")
			})

			Convey("And the player marker sits under its slot", func() {
				p := s.Player()
				ch, _, _, _ := screen.GetContent(p.Slot*9+2, 6)
				So(ch, ShouldEqual, '^')
			})
		})

		Convey("When the session is over", func() {
			over := s.Snapshot()
			over.State = game.StateGameOver
			r.Draw(tui.View{Snapshot: over, Name: "ada", Status: "submitted"})
			text := screenText(screen)

			Convey("Then the name prompt and status show", func() {
				So(text, ShouldContainSubstring, "GAME OVER  enter your name: ada_")
				So(text, ShouldContainSubstring, "submitted")
			})
		})

		Convey("When the screen is narrower than the board", func() {
			screen.SetSize(20, 5)
			So(func() { r.Draw(tui.View{Snapshot: s.Snapshot()}) }, ShouldNotPanic)
		})
	})
}

func TestGlyphs(t *testing.T) {
	Convey("Given hand angles", t, func() {
		So(tui.HandGlyph(0), ShouldEqual, '↑')
		So(tui.HandGlyph(math.Pi/2), ShouldEqual, '→')
		So(tui.HandGlyph(math.Pi), ShouldEqual, '↓')
		So(tui.HandGlyph(-math.Pi/2), ShouldEqual, '←')
		So(tui.HandGlyph(2*math.Pi-0.1), ShouldEqual, '↑')
	})

	Convey("Given oil bands", t, func() {
		So(tui.OilGauge(0), ShouldEqual, "[..........]")
		So(tui.OilGauge(3), ShouldEqual, "[###.......]")
		So(tui.OilGauge(12), ShouldEqual, "[##########]")
	})
}

func TestInputMapper(t *testing.T) {
	Convey("Given an input mapper with a 120ms hold window", t, func() {
		m := tui.NewInputMapper(120 * time.Millisecond)
		now := time.Unix(100, 0)

		Convey("When arrows and interact are pressed", func() {
			m.HandleKey(key(tcell.KeyLeft), now)
			m.HandleKey(char('e'), now)
			in := m.Sample(now)

			Convey("Then they fire once as edges", func() {
				So(in.Left, ShouldBeTrue)
				So(in.Interact, ShouldBeTrue)
				So(in.Right, ShouldBeFalse)
				So(m.Sample(now), ShouldResemble, game.Input{})
			})
		})

		Convey("When wind is pressed", func() {
			m.HandleKey(char('w'), now)

			Convey("Then it stays held within the window", func() {
				So(m.Sample(now.Add(50*time.Millisecond)).Wind, ShouldBeTrue)
				So(m.Sample(now.Add(120*time.Millisecond)).Wind, ShouldBeTrue)
			})

			Convey("And releases after it", func() {
				So(m.Sample(now.Add(121*time.Millisecond)).Wind, ShouldBeFalse)
			})

			Convey("And auto-repeat keeps it held", func() {
				m.HandleKey(char('w'), now.Add(100*time.Millisecond))
				So(m.Sample(now.Add(200*time.Millisecond)).Wind, ShouldBeTrue)
			})
		})

		Convey("When set and drink are pressed", func() {
			m.HandleKey(char('s'), now)
			m.HandleKey(char(' '), now)
			in := m.Sample(now)
			So(in.Set, ShouldBeTrue)
			So(in.Drink, ShouldBeTrue)
		})

		Convey("When escape is pressed", func() {
			m.HandleKey(key(tcell.KeyEscape), now)
			So(m.Quit(), ShouldBeTrue)

			Convey("Then Reset clears it", func() {
				m.Reset()
				So(m.Quit(), ShouldBeFalse)
			})
		})
	})
}

func TestNamePrompt(t *testing.T) {
	Convey("Given a name prompt", t, func() {
		p := tui.NewNamePrompt(5)

		Convey("When letters and digits are typed", func() {
			for _, r := range "ad!a9xyz" {
				p.HandleKey(char(r))
			}

			Convey("Then symbols are ignored and the length is capped", func() {
				So(p.Text(), ShouldEqual, "ada9x")
			})

			Convey("And backspace removes the last rune", func() {
				p.HandleKey(key(tcell.KeyBackspace2))
				So(p.Text(), ShouldEqual, "ada9")
			})

			Convey("And enter submits", func() {
				So(p.HandleKey(key(tcell.KeyEnter)), ShouldEqual, tui.PromptSubmit)
			})
		})

		Convey("When enter is pressed on a blank name", func() {
			p.HandleKey(char(' '))
			So(p.HandleKey(key(tcell.KeyEnter)), ShouldEqual, tui.PromptNone)
		})

		Convey("When escape is pressed", func() {
			So(p.HandleKey(key(tcell.KeyEscape)), ShouldEqual, tui.PromptCancel)
		})

		Convey("When filled with a configured name", func() {
			p.Fill("j.o-e 12345")

			Convey("Then only keyboard-acceptable runes are kept, up to the cap", func() {
				So(p.Text(), ShouldEqual, "joe 1")
				So(p.Name(), ShouldEqual, "joe 1")
			})
		})

		Convey("When reset", func() {
			p.HandleKey(char('z'))
			p.Reset()
			So(p.Text(), ShouldEqual, "")
		})
	})
}
