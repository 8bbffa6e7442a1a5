package audio

import (
	"context"
	"fmt"

	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
	"github.com/okian/clockery/pkg/metrics"
)

// Dispatcher forwards sound events to a Sink. Sink failures are logged and
// counted, never returned to the simulation.
type Dispatcher struct {
	sink     Sink
	logger   logger.Logger
	failures uint64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher for sink. A nil sink discards events.
func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	if sink == nil {
		sink = NullSink{}
	}
	d := &Dispatcher{sink: sink}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.Get().Named("audio")
	}
	return d
}

// Dispatch sends the sound events among events to the sink in order and
// returns how many failed.
func (d *Dispatcher) Dispatch(ctx context.Context, events []game.Event) int {
	failed := 0
	for _, e := range events {
		if !e.Kind.IsSound() {
			continue
		}
		if err := d.send(e); err != nil {
			failed++
			d.failures++
			metrics.RecordAudioEvent("failed")
			d.logger.Warn(ctx, "audio sink failed",
				logger.String("kind", e.Kind.String()),
				logger.String("sound", string(e.Sound)),
				logger.Uint64("tick", e.Tick),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordAudioEvent(e.Kind.String())
	}
	return failed
}

// Failures returns the total number of failed sink calls.
func (d *Dispatcher) Failures() uint64 { return d.failures }

func (d *Dispatcher) send(e game.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	switch e.Kind {
	case game.EventPlayOnce:
		return d.sink.PlayOnce(e.Sound)
	case game.EventPlayLoop:
		return d.sink.PlayLoop(e.Sound)
	case game.EventStopLoop:
		return d.sink.StopLoop(e.Sound)
	case game.EventStopAllLoops:
		return d.sink.StopAllLoops()
	}
	return nil
}
