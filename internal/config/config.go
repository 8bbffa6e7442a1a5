// Package config defines process configuration for the game, the autoplay
// tool and the leaderboard service, and the layered loader that builds it.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and CLOCKERY_ env vars on top.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration shared by every binary.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile redirects logs to a file. The terminal game always needs one.
	LogFile string `koanf:"log_file"`

	// Addr configures the leaderboard HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the capacity of the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultLeaderboardLimit applies when limit is omitted.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// Store selects the leaderboard backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used by the sqlite store.
	SQLitePath string `koanf:"sqlite_path"`

	// LeaderboardURL is where the game and autoplay submit scores. Empty
	// disables submission.
	LeaderboardURL string `koanf:"leaderboard_url"`

	// SubmitTimeoutMS bounds a single leaderboard request.
	SubmitTimeoutMS int `koanf:"submit_timeout_ms"`

	// PlayerName pre-fills the name prompt and names autoplay bots.
	PlayerName string `koanf:"player_name"`

	// AudioEnabled turns the speaker on.
	AudioEnabled bool `koanf:"audio_enabled"`

	// SampleRate of the audio output in Hz.
	SampleRate int `koanf:"sample_rate"`

	// FrameIntervalMS is the render and input cadence of the game loop.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// HoldWindowMS is how long a key press counts as held.
	HoldWindowMS int `koanf:"hold_window_ms"`

	// TelemetryDir enables CSV telemetry when set.
	TelemetryDir string `koanf:"telemetry_dir"`

	// TuningFile overlays the embedded gameplay tuning.
	TuningFile string `koanf:"tuning_file"`

	// Seed fixes the sound-choice randomness. Zero seeds from the clock.
	Seed uint64 `koanf:"seed"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              100_000,
		MaxLeaderboardLimit:     100,
		DefaultLeaderboardLimit: 25,
		Store:                   StoreMemory,
		SQLitePath:              "clockery.db",
		SubmitTimeoutMS:         3000,
		PlayerName:              "",
		AudioEnabled:            true,
		SampleRate:              44100,
		FrameIntervalMS:         16,
		HoldWindowMS:            120,
	}
}

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// HoldWindow returns HoldWindowMS as a duration.
func (c *Config) HoldWindow() time.Duration {
	return time.Duration(c.HoldWindowMS) * time.Millisecond
}

// SubmitTimeout returns SubmitTimeoutMS as a duration.
func (c *Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutMS) * time.Millisecond
}
