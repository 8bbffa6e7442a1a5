package runner

import (
	"time"

	"github.com/okian/clockery/pkg/logger"
)

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxDT caps the simulated time of one frame.
func WithMaxDT(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.maxDT = d
		}
	}
}

// WithDispatcher forwards each frame's events to d.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Runner) { r.dispatcher = d }
}

// WithObserver adds a frame observer. Observers run in the order added.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
