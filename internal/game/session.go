// Package game is the Clockery simulation: the slot map, the clock arena,
// the player controller and the tick that moves, winds, sets, decays, scores
// and spawns. It is single-threaded and pure; side effects leave through the
// event queue returned by Drain.
package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// State is the session lifecycle.
type State uint8

const (
	StateInactive State = iota
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "game_over"
	default:
		return "inactive"
	}
}

// Session bundles all mutable simulation state. Each tick phase is the only
// writer of the fields it touches.
type Session struct {
	tuning *Tuning
	slots  *SlotMap
	rng    *rand.Rand
	newID  func() string

	id      string
	state   State
	over    bool
	clocks  arena
	player  Controller
	score   float64
	elapsed float64
	tick    uint64
	name    string
	reached int

	accumulator  float64
	pendingSpawn bool

	loops  loopRegistry
	events []Event
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithTuning replaces the embedded tuning. NewSession panics on a tuning
// that fails Validate.
func WithTuning(t *Tuning) Option {
	return func(s *Session) {
		if t != nil {
			s.tuning = t
		}
	}
}

// WithRand sets the source used for the four-way sound variants.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed seeds a deterministic PCG source.
func WithSeed(seed uint64) Option {
	return func(s *Session) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(f func() string) Option {
	return func(s *Session) {
		if f != nil {
			s.newID = f
		}
	}
}

// NewSession builds an inactive session. Call StartSession to play.
func NewSession(opts ...Option) *Session {
	s := &Session{
		tuning: DefaultTuning(),
		newID:  uuid.NewString,
		state:  StateInactive,
		clocks: newArena(),
		loops:  newLoopRegistry(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		now := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(now, now>>1|1))
	}
	if err := s.tuning.Validate(); err != nil {
		panic(fmt.Sprintf("game: %v", err))
	}
	s.slots = NewSlotMap(s.tuning.Slots)
	s.player = newController(s.tuning)
	return s
}

// StartSession resets score to zero and creates the main clock, the first
// ordinary clock and the player controller. A running session is replaced.
func (s *Session) StartSession() {
	if s.loops.len() > 0 {
		s.stopAllLoops()
	}

	t := s.tuning
	s.id = s.newID()
	s.state = StatePlaying
	s.over = false
	s.score = 0
	s.elapsed = 0
	s.tick = 0
	s.name = ""
	s.accumulator = 0
	s.pendingSpawn = false
	s.player = newController(t)

	s.clocks = newArena()
	s.clocks.add(Clock{
		Main:     true,
		Hour:     normalizeAngle(t.MainStartRotation),
		Minute:   normalizeAngle(t.MainStartRotation),
		Position: t.MainClock,
	})
	first := s.clocks.add(s.clockFromPreset(t.Presets[0], t.FirstClockSlot))
	s.reached = s.clocks.ordinaryCount()

	s.emit(Event{Kind: EventSessionStarted})
	s.playLoop(SoundtrackGameplay)
	s.playLoop(s.clocks.get(first).AudioKey)
}

// EndSession freezes ticking, stops every loop and tears the clocks down.
// Score, name and id survive for Result until the next StartSession.
func (s *Session) EndSession() {
	if s.state == StateInactive {
		return
	}
	s.state = StateInactive
	s.stopAllLoops()
	s.emit(Event{Kind: EventSessionEnded, Score: s.score})
	s.clocks = newArena()
	s.player.Held = NoClock
	s.pendingSpawn = false
}

// Tick advances the session by dt seconds. Phases run in a fixed order:
// input and interaction, then zero or more fixed decay/scoring steps, then
// spawn consumption. Nothing happens unless the session is playing.
func (s *Session) Tick(in Input, dt float64) {
	if s.state != StatePlaying || dt <= 0 {
		return
	}
	s.tick++
	s.elapsed += dt

	s.interact(in, dt)

	step := s.tuning.FixedStep
	s.accumulator += dt
	for n := 0; s.accumulator >= step; n++ {
		if n == s.tuning.MaxFixedSteps {
			// drop the backlog rather than spiral after a long stall
			s.accumulator = 0
			break
		}
		s.accumulator -= step
		if !s.fixedStep(in, step) {
			return
		}
	}

	s.consumeSpawn()
}

// fixedStep runs oil, decay and scoring, and the spawn trigger. It returns
// false once the session is over.
func (s *Session) fixedStep(in Input, dt float64) bool {
	if s.stepOil(in, dt) {
		return false
	}
	s.stepClocks(dt)
	s.checkSpawn()
	return true
}

func (s *Session) gameOver() {
	s.state = StateGameOver
	s.over = true
	s.stopAllLoops()
	s.emit(Event{Kind: EventGameOver, Score: s.score})
}

// Drain hands over the events queued since the last call.
func (s *Session) Drain() []Event {
	out := s.events
	s.events = nil
	return out
}

func (s *Session) emit(e Event) {
	e.Tick = s.tick
	s.events = append(s.events, e)
}

func (s *Session) playOnce(key SoundKey) {
	s.emit(Event{Kind: EventPlayOnce, Sound: key})
}

func (s *Session) playLoop(key SoundKey) {
	if s.loops.start(key) {
		s.emit(Event{Kind: EventPlayLoop, Sound: key})
	}
}

func (s *Session) stopLoop(key SoundKey) {
	if s.loops.stop(key) {
		s.emit(Event{Kind: EventStopLoop, Sound: key})
	}
}

func (s *Session) stopAllLoops() {
	s.loops.reset()
	s.emit(Event{Kind: EventStopAllLoops})
}

// ID returns the current session id.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Score returns the accumulated score.
func (s *Session) Score() float64 { return s.score }

// Elapsed returns seconds of play since StartSession.
func (s *Session) Elapsed() float64 { return s.elapsed }

// TickCount returns the number of ticks played.
func (s *Session) TickCount() uint64 { return s.tick }

// Player returns a copy of the controller.
func (s *Session) Player() Controller { return s.player }

// Tuning returns the tuning in use. Callers must not mutate it.
func (s *Session) Tuning() *Tuning { return s.tuning }

// Slots returns the slot map.
func (s *Session) Slots() *SlotMap { return s.slots }

// Clock returns a copy of the clock behind id.
func (s *Session) Clock(id ClockID) (Clock, bool) {
	c := s.clocks.get(id)
	if c == nil {
		return Clock{}, false
	}
	return *c, true
}

// Clocks returns copies of every clock, main first.
func (s *Session) Clocks() []Clock {
	out := make([]Clock, len(s.clocks.clocks))
	copy(out, s.clocks.clocks)
	return out
}

// LoopPlaying reports whether the session believes key is looping.
func (s *Session) LoopPlaying(key SoundKey) bool { return s.loops.playing(key) }
