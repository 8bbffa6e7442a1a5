package autoplay

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/clockery/internal/game"
)

// DefaultDT is the simulated frame length of a headless session.
const DefaultDT = 1.0 / 30

// maxTicks bounds a session whose bot never lets go.
const maxTicks = 1 << 22

// ErrNoGameOver is returned when a session hits the tick bound while still playing.
var ErrNoGameOver = errors.New("autoplay: session did not end")

// Observer sees every headless frame. telemetry.Recorder satisfies it.
type Observer interface {
	Observe(ctx context.Context, snap game.Snapshot, events []game.Event)
}

// Play runs session to game over as fast as possible, feeding bot decisions
// at a fixed dt, and returns the named result.
func Play(ctx context.Context, session *game.Session, bot *Bot, dt float64, observers ...Observer) (game.Result, error) {
	if dt <= 0 {
		dt = DefaultDT
	}

	session.StartSession()
	observe(ctx, session, observers)

	for n := 0; session.State() == game.StatePlaying; n++ {
		if n == maxTicks {
			session.EndSession()
			observe(ctx, session, observers)
			return game.Result{}, ErrNoGameOver
		}
		if n%256 == 0 && ctx.Err() != nil {
			session.EndSession()
			observe(ctx, session, observers)
			return game.Result{}, ctx.Err()
		}
		session.Tick(bot.Decide(session.Snapshot()), dt)
		observe(ctx, session, observers)
	}

	session.SetPlayerName(bot.Name)
	res, err := session.Result()
	if err != nil {
		return game.Result{}, fmt.Errorf("session %s: %w", session.ID(), err)
	}
	return res, nil
}

func observe(ctx context.Context, session *game.Session, observers []Observer) {
	events := session.Drain()
	if len(observers) == 0 {
		return
	}
	snap := session.Snapshot()
	for _, o := range observers {
		o.Observe(ctx, snap, events)
	}
}
