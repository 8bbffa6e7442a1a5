package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized on stdout", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get should return it", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized on a nil writer", func() {
			Convey("Then it should fail", func() {
				So(InitWithWriter(nil), ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerWriter(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When an info line with fields is logged", func() {
			Named("game").Info(ctx, "clock spawned",
				String("sound", "ticking_2"),
				Int("slot", 0),
				Float64("score", 30.5),
				Bool("synced", true),
				Duration("elapsed", 2*time.Second),
			)
			out := buf.String()

			Convey("Then every field and the component should be written", func() {
				So(out, ShouldContainSubstring, "clock spawned")
				So(out, ShouldContainSubstring, "component=game")
				So(out, ShouldContainSubstring, "sound=ticking_2")
				So(out, ShouldContainSubstring, "slot=0")
				So(out, ShouldContainSubstring, "synced=true")
				So(out, ShouldContainSubstring, "elapsed=2s")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then info lines should be dropped", func() {
				So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When an unknown level is set", func() {
			Convey("Then it should be rejected", func() {
				So(SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerFile(t *testing.T) {
	Convey("Given a log file path in a temp dir", t, func() {
		path := t.TempDir() + "/logs/clockery.log"

		Convey("When the logger is initialized on it", func() {
			f, err := InitFile(path)
			So(err, ShouldBeNil)
			Get().Info(context.Background(), "to file")
			So(f.Close(), ShouldBeNil)

			Convey("Then the file should exist", func() {
				So(f.Name(), ShouldEqual, path)
			})
		})
	})
}
