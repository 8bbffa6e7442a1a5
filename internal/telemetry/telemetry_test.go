package telemetry_test

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/internal/telemetry"
	"github.com/okian/clockery/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

func snapshot(id string, tick uint64, oil float64, active, synced int) game.Snapshot {
	clocks := []game.ClockView{{Main: true}}
	for range active {
		clocks = append(clocks, game.ClockView{})
	}
	return game.Snapshot{
		SessionID: id,
		State:     game.StatePlaying,
		Tick:      tick,
		Elapsed:   float64(tick) * 0.015625,
		Score:     float64(tick) / 10,
		Player:    game.Controller{OilLevel: oil, OilLeak: 1.4},
		Clocks:    clocks,
		Active:    active,
		Synced:    synced,
	}
}

func readCSV[T any](path string) []T {
	f, err := os.Open(path)
	So(err, ShouldBeNil)
	defer f.Close()
	var rows []T
	So(gocsv.UnmarshalFile(f, &rows), ShouldBeNil)
	return rows
}

func TestSummarize(t *testing.T) {
	Convey("Given no samples", t, func() {
		So(telemetry.Summarize(nil), ShouldResemble, telemetry.Summary{})
	})

	Convey("Given a single sample", t, func() {
		sum := telemetry.Summarize([]telemetry.Sample{{SessionID: "a", Oil: 80, Active: 2, Synced: 1, Clocks: 2}})

		Convey("Then the deviation should be zero rather than NaN", func() {
			So(sum.OilMean, ShouldEqual, 80)
			So(sum.OilStd, ShouldEqual, 0)
			So(sum.SyncMean, ShouldEqual, 0.5)
			So(sum.SyncStd, ShouldEqual, 0)
		})
	})

	Convey("Given several samples", t, func() {
		samples := []telemetry.Sample{
			{SessionID: "a", Time: 1, Oil: 90, Active: 1, Synced: 1, Clocks: 1, Score: 1},
			{SessionID: "a", Time: 2, Oil: 70, Active: 2, Synced: 1, Clocks: 2, Score: 3},
			{SessionID: "a", Time: 3, Oil: 50, Active: 0, Synced: 0, Clocks: 3, Score: 4},
		}
		sum := telemetry.Summarize(samples)

		Convey("Then mean, sample deviation and extremes should be reported", func() {
			So(sum.SessionID, ShouldEqual, "a")
			So(sum.Samples, ShouldEqual, 3)
			So(sum.OilMean, ShouldAlmostEqual, 70)
			So(sum.OilStd, ShouldAlmostEqual, 20)
			So(sum.OilMin, ShouldEqual, 50)
			So(sum.SyncMean, ShouldAlmostEqual, 0.5)
			So(sum.SyncStd, ShouldAlmostEqual, 0.5)
			So(sum.PeakClocks, ShouldEqual, 3)
			So(sum.Score, ShouldEqual, 4)
			So(sum.DurationS, ShouldEqual, 3)
		})
	})

	Convey("A sample without active clocks has a zero sync ratio", t, func() {
		So(telemetry.Sample{}.SyncRatio(), ShouldEqual, 0)
		So(math.IsNaN(telemetry.Sample{}.SyncRatio()), ShouldBeFalse)
	})
}

func TestRecorder(t *testing.T) {
	Convey("Given telemetry is disabled", t, func() {
		r, err := telemetry.NewRecorder("")

		Convey("Then the nil recorder should be inert", func() {
			So(err, ShouldBeNil)
			So(r, ShouldBeNil)
			r.Observe(context.Background(), game.Snapshot{}, nil)
			So(r.Summaries(), ShouldBeNil)
			So(r.Close(), ShouldBeNil)
			So(r.Dir(), ShouldEqual, "")
		})
	})

	Convey("Given a recorder sampling every 4 ticks", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "run")
		r, err := telemetry.NewRecorder(dir, telemetry.WithEvery(4))
		So(err, ShouldBeNil)
		So(r.Dir(), ShouldEqual, dir)

		Convey("When a session plays ten ticks and ends in game over", func() {
			r.Observe(ctx, snapshot("s1", 0, 100, 1, 1), []game.Event{{Kind: game.EventSessionStarted}})
			for tick := uint64(1); tick <= 10; tick++ {
				r.Observe(ctx, snapshot("s1", tick, 100-float64(tick), 2, 1), nil)
			}
			over := snapshot("s1", 11, 0, 2, 0)
			over.State = game.StateGameOver
			r.Observe(ctx, over, []game.Event{{Kind: game.EventGameOver, Score: 7.5}})
			// A later session end must not add a second row.
			r.Observe(ctx, over, []game.Event{{Kind: game.EventSessionEnded}})
			So(r.Close(), ShouldBeNil)

			Convey("Then samples.csv should hold ticks 0, 4 and 8", func() {
				rows := readCSV[telemetry.Sample](filepath.Join(dir, "samples.csv"))
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Tick, ShouldEqual, 0)
				So(rows[1].Tick, ShouldEqual, 4)
				So(rows[2].Tick, ShouldEqual, 8)
				So(rows[1].Oil, ShouldEqual, 96)
				So(rows[1].Leak, ShouldEqual, 1.4)
				So(rows[1].Clocks, ShouldEqual, 2)
				So(rows[1].Synced, ShouldEqual, 1)
			})

			Convey("Then sessions.csv should hold one game over summary", func() {
				rows := readCSV[telemetry.Summary](filepath.Join(dir, "sessions.csv"))
				So(len(rows), ShouldEqual, 1)
				So(rows[0].SessionID, ShouldEqual, "s1")
				So(rows[0].Outcome, ShouldEqual, telemetry.OutcomeGameOver)
				So(rows[0].Score, ShouldEqual, 7.5)
				So(rows[0].Samples, ShouldEqual, 3)
				So(rows[0].OilMin, ShouldEqual, 92)
				So(r.Summaries(), ShouldHaveLength, 1)
			})
		})

		Convey("When two sessions interleave", func() {
			r.Observe(ctx, snapshot("a", 0, 100, 1, 1), []game.Event{{Kind: game.EventSessionStarted}})
			r.Observe(ctx, snapshot("b", 0, 100, 1, 0), []game.Event{{Kind: game.EventSessionStarted}})
			r.Observe(ctx, snapshot("a", 4, 90, 1, 1), nil)
			r.Observe(ctx, snapshot("b", 4, 80, 1, 0), nil)
			r.Observe(ctx, snapshot("b", 5, 79, 1, 0), []game.Event{{Kind: game.EventSessionEnded}})
			r.Observe(ctx, snapshot("a", 5, 89, 1, 1), []game.Event{{Kind: game.EventSessionEnded}})
			So(r.Close(), ShouldBeNil)

			Convey("Then each session should be summarized from its own samples", func() {
				sums := r.Summaries()
				So(len(sums), ShouldEqual, 2)
				So(sums[0].SessionID, ShouldEqual, "b")
				So(sums[0].Outcome, ShouldEqual, telemetry.OutcomeEnded)
				So(sums[0].SyncMean, ShouldEqual, 0)
				So(sums[1].SessionID, ShouldEqual, "a")
				So(sums[1].SyncMean, ShouldEqual, 1)
				So(sums[1].OilMean, ShouldEqual, 95)

				rows := readCSV[telemetry.Sample](filepath.Join(dir, "samples.csv"))
				So(len(rows), ShouldEqual, 4)
			})
		})

		Convey("When a real session is observed through its drained events", func() {
			session := game.NewSession(game.WithSeed(9))
			session.StartSession()
			r.Observe(ctx, session.Snapshot(), session.Drain())
			for range 12 {
				session.Tick(game.Input{}, 0.015625)
				r.Observe(ctx, session.Snapshot(), session.Drain())
			}
			session.EndSession()
			r.Observe(ctx, session.Snapshot(), session.Drain())
			So(r.Close(), ShouldBeNil)

			Convey("Then the session should be sampled and summarized", func() {
				sums := r.Summaries()
				So(len(sums), ShouldEqual, 1)
				So(sums[0].SessionID, ShouldEqual, session.ID())
				So(sums[0].Samples, ShouldEqual, 4)
				So(sums[0].OilMean, ShouldBeLessThanOrEqualTo, 100)
				So(sums[0].PeakClocks, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
