package audio_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/clockery/internal/audio"
	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

type flakySink struct {
	audio.RecordingSink
	panicOn game.SoundKey
	failOn  game.SoundKey
}

func (f *flakySink) PlayOnce(key game.SoundKey) error {
	switch key {
	case f.panicOn:
		panic("device gone")
	case f.failOn:
		return errors.New("busy")
	}
	return nil
}

func peak(buf [][2]float64) float64 {
	p := 0.0
	for _, s := range buf {
		p = math.Max(p, math.Abs(s[0]))
	}
	return p
}

func TestDispatcher(t *testing.T) {
	convey.Convey("Given a dispatcher over a recording sink", t, func() {
		ctx := context.Background()
		sink := audio.NewRecordingSink()
		d := audio.NewDispatcher(sink)

		convey.Convey("When a tick's events are dispatched", func() {
			failed := d.Dispatch(ctx, []game.Event{
				{Kind: game.EventPlayLoop, Sound: game.SoundTicking1},
				{Kind: game.EventClockSpawned, Clock: 1},
				{Kind: game.EventPlayOnce, Sound: game.SoundStep2},
				{Kind: game.EventStopLoop, Sound: game.SoundTicking1},
				{Kind: game.EventStopAllLoops},
			})

			convey.Convey("Then only sound events reach the sink, in order", func() {
				convey.So(failed, convey.ShouldEqual, 0)
				convey.So(sink.Calls(), convey.ShouldResemble, []audio.Call{
					{Op: "loop", Key: game.SoundTicking1},
					{Op: "once", Key: game.SoundStep2},
					{Op: "stop", Key: game.SoundTicking1},
					{Op: "stop_all"},
				})
				convey.So(sink.Playing(game.SoundTicking1), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the sink fails or panics", func() {
			flaky := &flakySink{panicOn: game.SoundStep1, failOn: game.SoundStep2}
			fd := audio.NewDispatcher(flaky)
			failed := fd.Dispatch(ctx, []game.Event{
				{Kind: game.EventPlayOnce, Sound: game.SoundStep1},
				{Kind: game.EventPlayOnce, Sound: game.SoundStep2},
				{Kind: game.EventPlayOnce, Sound: game.SoundStep3},
			})

			convey.Convey("Then failures are counted and dispatch carries on", func() {
				convey.So(failed, convey.ShouldEqual, 2)
				convey.So(fd.Failures(), convey.ShouldEqual, uint64(2))
			})
		})

		convey.Convey("When built without a sink", func() {
			nd := audio.NewDispatcher(nil)
			convey.So(nd.Dispatch(ctx, []game.Event{{Kind: game.EventPlayOnce, Sound: game.SoundStep1}}), convey.ShouldEqual, 0)
		})
	})
}

func TestDispatcherWithSession(t *testing.T) {
	convey.Convey("Given a live session feeding a recording sink", t, func() {
		ctx := context.Background()
		sink := audio.NewRecordingSink()
		d := audio.NewDispatcher(sink)
		s := game.NewSession(game.WithSeed(7))

		s.StartSession()
		d.Dispatch(ctx, s.Drain())
		for range 30 {
			s.Tick(game.Input{}, 1.0/60)
			d.Dispatch(ctx, s.Drain())
		}

		convey.Convey("Then the gameplay soundtrack loops", func() {
			convey.So(sink.Playing(game.SoundtrackGameplay), convey.ShouldBeTrue)
		})

		convey.Convey("And ending the session stops every loop", func() {
			s.EndSession()
			d.Dispatch(ctx, s.Drain())
			convey.So(sink.Playing(game.SoundtrackGameplay), convey.ShouldBeFalse)
		})
	})
}

func TestBeepSink(t *testing.T) {
	convey.Convey("Given a beep sink rendered without a device", t, func() {
		sink := audio.NewBeepSink(audio.WithSampleRate(8000))
		buf := make([][2]float64, 800)

		convey.Convey("Then it is silent at rest", func() {
			n, ok := sink.Mixer().Stream(buf)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(n, convey.ShouldEqual, len(buf))
			convey.So(peak(buf), convey.ShouldEqual, 0)
		})

		convey.Convey("When a one-shot plays", func() {
			convey.So(sink.PlayOnce(game.SoundClockSpawn1), convey.ShouldBeNil)
			sink.Mixer().Stream(buf)

			convey.Convey("Then it is audible and then finishes", func() {
				convey.So(peak(buf), convey.ShouldBeGreaterThan, 0)
				for range 5 {
					sink.Mixer().Stream(buf)
				}
				convey.So(peak(buf), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a loop plays", func() {
			convey.So(sink.PlayLoop(game.SoundtrackGameplay), convey.ShouldBeNil)
			convey.So(sink.PlayLoop(game.SoundtrackGameplay), convey.ShouldBeNil)
			for range 10 {
				sink.Mixer().Stream(buf)
			}

			convey.Convey("Then it keeps sounding", func() {
				convey.So(peak(buf), convey.ShouldBeGreaterThan, 0)
				convey.So(sink.Looping(game.SoundtrackGameplay), convey.ShouldBeTrue)
			})

			convey.Convey("And stopping it silences the mixer", func() {
				convey.So(sink.StopLoop(game.SoundtrackGameplay), convey.ShouldBeNil)
				sink.Mixer().Stream(buf)
				convey.So(peak(buf), convey.ShouldEqual, 0)
				convey.So(sink.Looping(game.SoundtrackGameplay), convey.ShouldBeFalse)
			})

			convey.Convey("And StopAllLoops silences it too", func() {
				convey.So(sink.StopAllLoops(), convey.ShouldBeNil)
				sink.Mixer().Stream(buf)
				convey.So(peak(buf), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When stopping a loop that never started", func() {
			convey.So(sink.StopLoop(game.SoundWinding), convey.ShouldBeNil)
		})

		convey.Convey("When a key has no recipe", func() {
			err := sink.PlayOnce("Kazoo")
			convey.So(errors.Is(err, audio.ErrUnknownSound), convey.ShouldBeTrue)
		})

		convey.Convey("When muted", func() {
			muted := audio.NewBeepSink(audio.WithSampleRate(8000), audio.WithMasterVolume(0))
			convey.So(muted.PlayLoop(game.SoundWinding), convey.ShouldBeNil)
			muted.Mixer().Stream(buf)
			convey.So(peak(buf), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given the default recipes", t, func() {
		recipes := audio.DefaultRecipes()

		convey.Convey("Then every sound the simulation emits has one", func() {
			for _, key := range game.AllSounds() {
				_, ok := recipes[key]
				convey.So(ok, convey.ShouldBeTrue)
			}
		})
	})
}
