package autoplay_test

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/clockery/internal/adapters/http/client"
	"github.com/okian/clockery/internal/adapters/repository"
	"github.com/okian/clockery/internal/autoplay"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// fakeLeaderboard stores submissions synchronously but hides each one from
// the first Rank lookup, like a worker that has not caught up yet.
type fakeLeaderboard struct {
	store     *repository.TreapStore
	healthErr error

	mu     sync.Mutex
	looked map[string]bool
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{store: repository.NewTreapStore(), looked: make(map[string]bool)}
}

func (f *fakeLeaderboard) Health(context.Context) error { return f.healthErr }

func (f *fakeLeaderboard) Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error) {
	err := f.store.Insert(ctx, repository.Entry{
		ID:    req.SubmissionID,
		Name:  req.Name,
		Score: math.Round(req.Score*100) / 100,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return types.SubmitResponse{Status: types.StatusDuplicate, ID: req.SubmissionID}, nil
	}
	if err != nil {
		return types.SubmitResponse{}, err
	}
	return types.SubmitResponse{Status: types.StatusAccepted, ID: req.SubmissionID}, nil
}

func (f *fakeLeaderboard) Rank(ctx context.Context, id string) (types.Entry, error) {
	f.mu.Lock()
	first := !f.looked[id]
	f.looked[id] = true
	f.mu.Unlock()
	if first {
		return types.Entry{}, client.ErrNotFound
	}
	e, err := f.store.Rank(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Entry{}, client.ErrNotFound
	}
	return types.Entry{Rank: e.Rank, ID: e.ID, Name: e.Name, Score: e.Score}, err
}

func (f *fakeLeaderboard) Top(ctx context.Context, limit int) ([]types.Entry, error) {
	entries, err := f.store.TopN(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, ID: e.ID, Name: e.Name, Score: e.Score}
	}
	return out, nil
}

type frameCounter struct {
	mu     sync.Mutex
	frames int
	over   int
}

func (c *frameCounter) Observe(_ context.Context, _ game.Snapshot, events []game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	for _, e := range events {
		if e.Kind == game.EventGameOver {
			c.over++
		}
	}
}

func board(player game.Controller, clocks ...game.ClockView) game.Snapshot {
	return game.Snapshot{
		State:     game.StatePlaying,
		Slots:     make([]game.Vec2, 7),
		SpawnSlot: 0,
		OilSlot:   6,
		Player:    player,
		Clocks:    append([]game.ClockView{{ID: 0, Main: true, Slot: -1}}, clocks...),
	}
}

func TestBot(t *testing.T) {
	convey.Convey("Given a bot with default thresholds", t, func() {
		bot := autoplay.NewBot("bot-0", 60)
		free := game.Controller{Slot: 2, Held: game.NoClock, OilLevel: 80}

		convey.Convey("When the oil runs low away from the oil slot", func() {
			p := free
			p.OilLevel = 20
			convey.So(bot.Decide(board(p)), convey.ShouldResemble, game.Input{Right: true})
		})

		convey.Convey("When the oil runs low at the oil slot", func() {
			p := free
			p.Slot, p.OilLevel = 6, 20
			convey.So(bot.Decide(board(p)), convey.ShouldResemble, game.Input{Drink: true})
		})

		convey.Convey("When it is drinking and the can is not full yet", func() {
			p := free
			p.Slot, p.OilLevel, p.Drinking = 6, 60, true
			convey.So(bot.Decide(board(p)), convey.ShouldResemble, game.Input{Drink: true})
		})

		convey.Convey("When a clock waits on the spawn slot", func() {
			spawned := game.ClockView{ID: 2, Slot: 0, TimeLeft: 25}
			p := free
			convey.So(bot.Decide(board(p, spawned)), convey.ShouldResemble, game.Input{Left: true})

			p.Slot = 0
			convey.So(bot.Decide(board(p, spawned)), convey.ShouldResemble, game.Input{Interact: true})
		})

		convey.Convey("When a placed clock runs down", func() {
			fine := game.ClockView{ID: 1, Slot: 1, TimeLeft: 30}
			low := game.ClockView{ID: 2, Slot: 4, TimeLeft: 3}
			convey.So(bot.Decide(board(free, fine, low)), convey.ShouldResemble, game.Input{Right: true})
		})

		convey.Convey("When a dormant clock sits under the player", func() {
			dead := game.ClockView{ID: 1, Slot: 2, TimeLeft: 0, Dormant: true}
			convey.So(bot.Decide(board(free, dead)), convey.ShouldResemble, game.Input{Interact: true})
		})

		convey.Convey("When holding a clock with little time", func() {
			p := free
			p.Held = 1
			held := game.ClockView{ID: 1, Slot: -1, Lifted: true, TimeLeft: 20}
			convey.So(bot.Decide(board(p, held)), convey.ShouldResemble, game.Input{Wind: true})
		})

		convey.Convey("When holding a wound clock on the spawn slot next to an occupied slot", func() {
			p := free
			p.Slot, p.Held = 0, 2
			held := game.ClockView{ID: 2, Slot: -1, Lifted: true, TimeLeft: 50}
			other := game.ClockView{ID: 1, Slot: 1, TimeLeft: 30}
			convey.So(bot.Decide(board(p, held, other)), convey.ShouldResemble, game.Input{Right: true})

			p.Slot = 2
			convey.So(bot.Decide(board(p, held, other)), convey.ShouldResemble, game.Input{Interact: true})
		})

		convey.Convey("When holding a clock while thirsty", func() {
			p := free
			p.Held, p.OilLevel = 1, 10
			held := game.ClockView{ID: 1, Slot: -1, Lifted: true, TimeLeft: 5}
			convey.So(bot.Decide(board(p, held)), convey.ShouldResemble, game.Input{Interact: true})
		})

		convey.Convey("When it has given up", func() {
			p := free
			p.OilLevel = 5
			snap := board(p)
			snap.Elapsed = 61
			convey.So(bot.Decide(snap), convey.ShouldResemble, game.Input{})
		})

		convey.Convey("When there is nothing to do", func() {
			fine := game.ClockView{ID: 1, Slot: 1, TimeLeft: 30}
			convey.So(bot.Decide(board(free, fine)), convey.ShouldResemble, game.Input{})
		})
	})
}

func TestPlay(t *testing.T) {
	convey.Convey("Given a seeded session and a bot that gives up after 20 seconds", t, func() {
		ctx := context.Background()
		session := game.NewSession(game.WithSeed(1))
		frames := &frameCounter{}

		res, err := autoplay.Play(ctx, session, autoplay.NewBot("bot-1", 20), 0, frames)

		convey.Convey("Then the session should end in game over with a named result", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(session.State(), convey.ShouldEqual, game.StateGameOver)
			convey.So(res.SessionID, convey.ShouldEqual, session.ID())
			convey.So(res.Name, convey.ShouldEqual, "bot-1")
			convey.So(res.Score, convey.ShouldBeGreaterThan, 0)
			convey.So(res.Duration, convey.ShouldBeGreaterThanOrEqualTo, 20)
			convey.So(res.Clocks, convey.ShouldBeGreaterThanOrEqualTo, 1)
			convey.So(frames.over, convey.ShouldEqual, 1)
			convey.So(frames.frames, convey.ShouldBeGreaterThan, 600)
		})
	})

	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		session := game.NewSession(game.WithSeed(2))

		_, err := autoplay.Play(ctx, session, autoplay.NewBot("bot-2", 20), autoplay.DefaultDT)

		convey.Convey("Then the session should be ended without a result", func() {
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			convey.So(session.State(), convey.ShouldEqual, game.StateInactive)
		})
	})
}

func TestSoak(t *testing.T) {
	convey.Convey("Given a fake leaderboard", t, func() {
		ctx := context.Background()
		lb := newFakeLeaderboard()
		frames := &frameCounter{}
		cfg := autoplay.Config{
			Sessions:    4,
			Workers:     2,
			GiveUpAfter: 10,
			Seed:        7,
			TopN:        10,
			WaitTimeout: 5 * time.Second,
			Observers:   []autoplay.Observer{frames},
		}

		convey.Convey("When a soak runs", func() {
			stats, err := autoplay.Soak(ctx, cfg, lb)

			convey.Convey("Then every session should be played, stored and verified", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.SessionsPlayed, convey.ShouldEqual, 4)
				convey.So(stats.SessionsFailed, convey.ShouldEqual, 0)
				convey.So(stats.Accepted, convey.ShouldEqual, 4)
				convey.So(stats.RanksRetrieved, convey.ShouldEqual, 4)
				convey.So(stats.LeaderboardEntries, convey.ShouldEqual, 4)
				convey.So(stats.BestScore, convey.ShouldBeGreaterThan, 0)
				convey.So(frames.over, convey.ShouldEqual, 4)
				convey.So(lb.store.Count(ctx), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the service is down", func() {
			lb.healthErr = errors.New("connection refused")
			_, err := autoplay.Soak(ctx, cfg, lb)

			convey.Convey("Then nothing should be played", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(frames.frames, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	convey.Convey("Given a well formed leaderboard", t, func() {
		top := []types.Entry{
			{Rank: 1, ID: "a", Score: 90},
			{Rank: 2, ID: "b", Score: 50},
			{Rank: 2, ID: "c", Score: 50},
			{Rank: 3, ID: "d", Score: 10},
		}
		convey.So(autoplay.VerifyLeaderboard(top), convey.ShouldBeNil)
		convey.So(autoplay.VerifyLeaderboard(nil), convey.ShouldBeNil)

		convey.Convey("Then broken orderings should be reported", func() {
			broken := [][]types.Entry{
				{{Rank: 2, ID: "a", Score: 1}},
				{{Rank: 1, ID: "a", Score: 1}, {Rank: 2, ID: "b", Score: 2}},
				{{Rank: 1, ID: "b", Score: 1}, {Rank: 1, ID: "a", Score: 1}},
				{{Rank: 1, ID: "a", Score: 1}, {Rank: 2, ID: "b", Score: 1}},
				{{Rank: 1, ID: "a", Score: 2}, {Rank: 3, ID: "b", Score: 1}},
			}
			for _, entries := range broken {
				err := autoplay.VerifyLeaderboard(entries)
				convey.So(errors.Is(err, autoplay.ErrVerification), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then ranks should be checked against the results", func() {
			results := []game.Result{
				{SessionID: "a", Name: "ada", Score: 89.996},
				{SessionID: "d", Name: "dee", Score: 10},
			}
			ranks := map[string]types.Entry{
				"a": {Rank: 1, ID: "a", Name: "ada", Score: 90},
				"d": {Rank: 3, ID: "d", Name: "dee", Score: 10},
			}
			convey.So(autoplay.VerifyRanks(results, ranks, top), convey.ShouldBeNil)

			missing := map[string]types.Entry{"a": ranks["a"]}
			convey.So(errors.Is(autoplay.VerifyRanks(results, missing, top), autoplay.ErrVerification), convey.ShouldBeTrue)

			wrong := map[string]types.Entry{"a": {Rank: 1, ID: "a", Name: "ada", Score: 80}, "d": ranks["d"]}
			convey.So(errors.Is(autoplay.VerifyRanks(results, wrong, top), autoplay.ErrVerification), convey.ShouldBeTrue)

			convey.So(errors.Is(autoplay.VerifyRanks(results, ranks, top[1:]), autoplay.ErrVerification), convey.ShouldBeTrue)
		})
	})

	convey.Convey("A finished result maps onto a submission", t, func() {
		req := autoplay.SubmitRequest(game.Result{SessionID: "s", Name: "n", Score: 12.5, Duration: 40, Clocks: 3})
		convey.So(req, convey.ShouldResemble, types.SubmitRequest{
			SubmissionID: "s", Name: "n", Score: 12.5, DurationS: 40, Clocks: 3,
		})
	})
}
