package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/clockery/internal/autoplay"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/internal/runner"
	"github.com/okian/clockery/internal/tui"
	"github.com/okian/clockery/pkg/logger"
)

const (
	maxNameLength = 24
	keyBuffer     = 16
)

// scoreBoard is where finished games go. *client.Client satisfies it.
type scoreBoard interface {
	Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error)
}

// frontend owns the terminal: it routes keys to the input mapper while a
// session plays and to the name prompt at game over.
type frontend struct {
	screen     tcell.Screen
	renderer   *tui.Renderer
	mapper     *tui.InputMapper
	prompt     *tui.NamePrompt
	dispatcher runner.Dispatcher
	observers  []runner.Observer
	board      scoreBoard
	tuning     *game.Tuning
	seed       uint64
	interval   time.Duration
	timeout    time.Duration
	player     string
	log        logger.Logger

	prompting atomic.Bool
	keys      chan *tcell.EventKey
	pending   sync.WaitGroup

	mu     sync.Mutex
	status string
}

// pollEvents feeds terminal events until the screen is finalized.
func (f *frontend) pollEvents(ctx context.Context) {
	for {
		ev := f.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !f.prompting.Load() {
				f.mapper.HandleKey(ev, time.Now())
				continue
			}
			select {
			case f.keys <- ev:
			case <-ctx.Done():
				return
			}
		case *tcell.EventResize:
			f.screen.Sync()
		}
	}
}

// play runs sessions back to back until the player quits.
func (f *frontend) play(ctx context.Context) error {
	for n := uint64(0); ; n++ {
		session := game.NewSession(game.WithTuning(f.tuning), game.WithSeed(f.seed+n))
		f.mapper.Reset()

		opts := []runner.Option{
			runner.WithInterval(f.interval),
			runner.WithDispatcher(f.dispatcher),
			runner.WithLogger(f.log.Named("runner")),
		}
		for _, o := range f.observers {
			opts = append(opts, runner.WithObserver(o))
		}
		opts = append(opts, runner.WithObserver(runner.ObserverFunc(f.observe)))

		err := runner.New(session, f.mapper, opts...).Run(ctx)
		switch {
		case errors.Is(err, runner.ErrQuit), ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}

		if !f.askName(ctx, session) {
			return nil
		}
	}
}

func (f *frontend) observe(_ context.Context, snap game.Snapshot, _ []game.Event) {
	f.draw(tui.View{Snapshot: snap, Status: f.statusText()})
}

func (f *frontend) draw(v tui.View) {
	f.renderer.Draw(v)
	f.screen.Show()
}

// askName shows the game-over prompt. It reports whether to play again.
func (f *frontend) askName(ctx context.Context, session *game.Session) bool {
	f.prompt.Fill(f.player)
	f.drainKeys()
	f.prompting.Store(true)
	defer f.prompting.Store(false)

	snap := session.Snapshot()
	for {
		f.draw(tui.View{Snapshot: snap, Name: f.prompt.Text(), Status: f.statusText()})

		var ev *tcell.EventKey
		select {
		case <-ctx.Done():
			return false
		case ev = <-f.keys:
		}

		switch f.prompt.HandleKey(ev) {
		case tui.PromptCancel:
			return false
		case tui.PromptSubmit:
			session.SetPlayerName(f.prompt.Name())
			res, err := session.Result()
			if err != nil {
				f.setStatus(err.Error())
				continue
			}
			f.player = res.Name
			f.submit(ctx, res)
			return true
		}
	}
}

func (f *frontend) drainKeys() {
	for {
		select {
		case <-f.keys:
		default:
			return
		}
	}
}

// submit sends res in the background. Failures are logged and shown, never fatal.
func (f *frontend) submit(ctx context.Context, res game.Result) {
	if f.board == nil {
		f.setStatus("leaderboard disabled, score not sent")
		return
	}
	f.setStatus("sending score...")

	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		resp, err := f.board.Submit(sctx, autoplay.SubmitRequest(res))
		if err != nil {
			f.log.Warn(sctx, "score not submitted",
				logger.String("session_id", res.SessionID),
				logger.Float64("score", res.Score),
				logger.Error(err),
			)
			f.setStatus("score not sent: " + err.Error())
			return
		}
		f.log.Info(sctx, "score submitted",
			logger.String("session_id", res.SessionID),
			logger.String("status", resp.Status),
			logger.Float64("score", res.Score),
		)
		f.setStatus("score sent (" + resp.Status + ")")
	}()
}

// wait blocks until background submissions finish or timeout passes.
func (f *frontend) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		f.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (f *frontend) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *frontend) statusText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}
