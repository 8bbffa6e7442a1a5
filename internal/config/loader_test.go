package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/clockery/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CLOCKERY_ADDR", ":8080")
			_ = os.Setenv("CLOCKERY_QUEUE_SIZE", "500")
			_ = os.Setenv("CLOCKERY_WORKER_COUNT", "4")
			_ = os.Setenv("CLOCKERY_AUDIO_ENABLED", "false")
			_ = os.Setenv("CLOCKERY_SEED", "42")
			_ = os.Setenv("CLOCKERY_PLAYER_NAME", "ada")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.AudioEnabled, convey.ShouldBeFalse)
				convey.So(cfg.Seed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.PlayerName, convey.ShouldEqual, "ada")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
# comments are fine
addr: ":9090"
store: sqlite
sqlite_path: "/tmp/board.db"
frame_interval_ms: 20
telemetry_dir: "out"
`)
			_ = os.Setenv("CLOCKERY_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/board.db")
				convey.So(cfg.FrameIntervalMS, convey.ShouldEqual, 20)
				convey.So(cfg.TelemetryDir, convey.ShouldEqual, "out")
				convey.So(cfg.HoldWindowMS, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, "addr: \":9090\"\nworker_count: 24\nqueue_size: 300\n")
			_ = os.Setenv("CLOCKERY_CONFIG", path)
			_ = os.Setenv("CLOCKERY_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("CLOCKERY_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CLOCKERY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CLOCKERY_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		cases := []struct{ key, val string }{
			{"CLOCKERY_ADDR", ""},
			{"CLOCKERY_QUEUE_SIZE", "0"},
			{"CLOCKERY_WORKER_COUNT", "-1"},
			{"CLOCKERY_STORE", "redis"},
			{"CLOCKERY_DEFAULT_LEADERBOARD_LIMIT", "1000"},
			{"CLOCKERY_FRAME_INTERVAL_MS", "0"},
			{"CLOCKERY_HOLD_WINDOW_MS", "0"},
			{"CLOCKERY_SAMPLE_RATE", "0"},
		}
		for _, tc := range cases {
			key, val := tc.key, tc.val
			convey.Convey("When "+key+" is "+val, func() {
				_ = os.Setenv(key, val)

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When sqlite is chosen without a path", func() {
			cfg := config.New(ctx)
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = ""

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "CLOCKERY_") {
			_ = os.Unsetenv(key)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clockery.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
