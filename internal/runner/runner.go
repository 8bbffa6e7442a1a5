// Package runner drives a session at a fixed frame cadence.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
	"github.com/okian/clockery/pkg/metrics"
)

const (
	defaultInterval = 16 * time.Millisecond
	// dt is clamped so a stalled process does not replay seconds of decay at once.
	defaultMaxDT = 250 * time.Millisecond
)

// ErrQuit is returned by Run when the input source asks to leave.
var ErrQuit = errors.New("runner: quit")

// Clock supplies the time used to compute frame deltas.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// InputSource is sampled once per frame.
type InputSource interface {
	Sample(now time.Time) game.Input
	Quit() bool
}

// Dispatcher receives each frame's events, e.g. the audio dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []game.Event) int
}

// Observer sees every frame after the simulation step.
type Observer interface {
	Observe(ctx context.Context, snap game.Snapshot, events []game.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, snap game.Snapshot, events []game.Event)

func (f ObserverFunc) Observe(ctx context.Context, snap game.Snapshot, events []game.Event) {
	f(ctx, snap, events)
}

// Runner binds input, a session, its event consumers and a frame observer.
type Runner struct {
	session    *game.Session
	input      InputSource
	clock      Clock
	interval   time.Duration
	maxDT      time.Duration
	dispatcher Dispatcher
	observers  []Observer
	logger     logger.Logger
}

// New creates a runner for session fed by input.
func New(session *game.Session, input InputSource, opts ...Option) *Runner {
	r := &Runner{
		session:  session,
		input:    input,
		clock:    systemClock{},
		interval: defaultInterval,
		maxDT:    defaultMaxDT,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("runner")
	}
	return r
}

// Run starts a session and plays it until game over (nil), quit (ErrQuit)
// or ctx is done (ctx.Err()). The session is left as it ended so the caller
// can read the result.
func (r *Runner) Run(ctx context.Context) error {
	r.session.StartSession()
	metrics.RecordSessionStarted()
	r.logger.Info(ctx, "session started", logger.String("session_id", r.session.ID()))
	r.frame(ctx, r.session.Drain())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := r.clock.Now()

	for {
		select {
		case <-ctx.Done():
			r.end(ctx)
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		now := r.clock.Now()
		dt := min(now.Sub(last), r.maxDT)
		last = now

		in := r.input.Sample(now)
		if r.input.Quit() {
			r.end(ctx)
			return ErrQuit
		}
		r.session.Tick(in, dt.Seconds())
		r.frame(ctx, r.session.Drain())
		metrics.RecordFrameDuration(float64(time.Since(start).Microseconds()) / 1000)

		if r.session.State() == game.StateGameOver {
			r.logger.Info(ctx, "game over",
				logger.String("session_id", r.session.ID()),
				logger.Float64("score", r.session.Score()),
				logger.Float64("elapsed_s", r.session.Elapsed()),
			)
			return nil
		}
	}
}

func (r *Runner) end(ctx context.Context) {
	r.session.EndSession()
	r.frame(ctx, r.session.Drain())
}

// frame hands events to the dispatcher, metrics and observers.
func (r *Runner) frame(ctx context.Context, events []game.Event) {
	if r.dispatcher != nil && len(events) > 0 {
		r.dispatcher.Dispatch(ctx, events)
	}
	for _, e := range events {
		switch e.Kind {
		case game.EventClockSpawned:
			metrics.RecordClockSpawned()
		case game.EventClockDormant:
			metrics.RecordClockDormant()
		case game.EventClockRevived:
			metrics.RecordClockRevived()
		case game.EventGameOver:
			metrics.RecordGameOver(e.Score)
		case game.EventSessionEnded:
			metrics.RecordSessionEnded()
		}
	}

	snap := r.session.Snapshot()
	metrics.UpdateOilLevel(snap.Player.OilLevel)
	metrics.UpdateActiveClocks(snap.Active)
	for _, o := range r.observers {
		o.Observe(ctx, snap, events)
	}
}
