package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/okian/clockery/internal/game"
)

const (
	defaultSampleRate = 44100
	speakerBuffer     = 100 * time.Millisecond
)

// ErrUnknownSound is returned for a key without a recipe.
var ErrUnknownSound = errors.New("audio: unknown sound")

// BeepSink synthesizes every sound key on a beep mixer.
type BeepSink struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	mixer   *beep.Mixer
	loops   map[game.SoundKey]*beep.Ctrl
	recipes map[game.SoundKey]Recipe
	volume  float64
	opened  bool
}

// BeepOption configures a BeepSink.
type BeepOption func(*BeepSink)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(hz int) BeepOption {
	return func(s *BeepSink) {
		if hz > 0 {
			s.rate = beep.SampleRate(hz)
		}
	}
}

// WithRecipes replaces the tone table.
func WithRecipes(r map[game.SoundKey]Recipe) BeepOption {
	return func(s *BeepSink) {
		if r != nil {
			s.recipes = r
		}
	}
}

// WithMasterVolume scales every sound; 1 is unchanged, 0 is silent.
func WithMasterVolume(v float64) BeepOption {
	return func(s *BeepSink) {
		if v >= 0 {
			s.volume = v
		}
	}
}

// NewBeepSink creates a sink. Nothing is audible until Open.
func NewBeepSink(opts ...BeepOption) *BeepSink {
	s := &BeepSink{
		rate:    defaultSampleRate,
		mixer:   &beep.Mixer{},
		loops:   make(map[game.SoundKey]*beep.Ctrl),
		recipes: DefaultRecipes(),
		volume:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mixer.Add(beep.Silence(-1))
	return s
}

// Open initializes the speaker and starts playing the mixer.
func (s *BeepSink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}
	if err := speaker.Init(s.rate, s.rate.N(speakerBuffer)); err != nil {
		return fmt.Errorf("audio: init speaker: %w", err)
	}
	speaker.Play(s.mixer)
	s.opened = true
	return nil
}

// Close silences everything. The speaker stays initialized.
func (s *BeepSink) Close() error {
	if err := s.StopAllLoops(); err != nil {
		return err
	}
	s.withMixer(func() {
		s.mixer.Clear()
		s.mixer.Add(beep.Silence(-1))
	})
	return nil
}

// Mixer exposes the output stream, e.g. for rendering without a device.
func (s *BeepSink) Mixer() beep.Streamer { return s.mixer }

// withMixer runs f while the speaker is not reading the mixer.
func (s *BeepSink) withMixer(f func()) {
	if s.opened {
		speaker.Lock()
		defer speaker.Unlock()
	}
	f()
}

func (s *BeepSink) PlayOnce(key game.SoundKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.streamer(key, true)
	if err != nil {
		return err
	}
	s.withMixer(func() { s.mixer.Add(st) })
	return nil
}

func (s *BeepSink) PlayLoop(key game.SoundKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.loops[key]; ok && !c.Paused {
		return nil
	}
	st, err := s.streamer(key, false)
	if err != nil {
		return err
	}
	ctrl := &beep.Ctrl{Streamer: st}
	s.loops[key] = ctrl
	s.withMixer(func() { s.mixer.Add(ctrl) })
	return nil
}

func (s *BeepSink) StopLoop(key game.SoundKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.loops[key]; ok {
		s.withMixer(func() {
			c.Paused = true
			// A nil streamer makes the mixer drop the ctrl.
			c.Streamer = nil
		})
		delete(s.loops, key)
	}
	return nil
}

func (s *BeepSink) StopAllLoops() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withMixer(func() {
		for _, c := range s.loops {
			c.Paused = true
			c.Streamer = nil
		}
	})
	clear(s.loops)
	return nil
}

// Looping reports whether key has an active loop.
func (s *BeepSink) Looping(key game.SoundKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[key]
	return ok
}

func (s *BeepSink) streamer(key game.SoundKey, once bool) (beep.Streamer, error) {
	r, ok := s.recipes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSound, key)
	}
	tone, err := generators.SineTone(s.rate, r.Freq)
	if err != nil {
		return nil, fmt.Errorf("audio: tone for %q: %w", key, err)
	}
	var st beep.Streamer = &gate{
		tone:   tone,
		on:     max(s.rate.N(r.On), 1),
		period: max(s.rate.N(r.Period), 1),
	}
	if once {
		length := r.Length
		if length <= 0 {
			length = r.Period
		}
		st = beep.Take(s.rate.N(length), st)
	}
	return volume(st, r.Volume*s.volume), nil
}

// volume converts a linear gain to beep's logarithmic volume effect.
func volume(st beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: st, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: st, Base: 2, Volume: math.Log2(gain)}
}

// gate passes the tone for the first on samples of every period and
// silence for the rest. It never ends.
type gate struct {
	tone   beep.Streamer
	on     int
	period int
	pos    int
}

func (g *gate) Stream(samples [][2]float64) (int, bool) {
	n, _ := g.tone.Stream(samples)
	for i := range samples[:n] {
		if g.pos%g.period >= g.on {
			samples[i] = [2]float64{}
		}
		g.pos++
	}
	return n, true
}

func (g *gate) Err() error { return nil }
