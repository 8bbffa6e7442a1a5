package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/clockery/internal/adapters/http/client"
	"github.com/okian/clockery/internal/autoplay"
	"github.com/okian/clockery/internal/config"
	"github.com/okian/clockery/internal/telemetry"
	"github.com/okian/clockery/pkg/logger"
)

// Default configuration constants.
const (
	defaultURL         = "http://localhost:9080"
	defaultSessions    = 64
	defaultTopN        = 50
	defaultGiveUp      = 180.0
	defaultTimeout     = 10 * time.Second
	defaultWait        = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
	defaultSampleEvery = 64
)

const usage = `Clockery autoplay
=================

Plays headless sessions with a bot, submits every result to the leaderboard
service and verifies the ranks and the leaderboard order.

Usage:
  autoplay [options]

Examples:
  # Soak a local service with the defaults
  autoplay

  # Many short sessions with CSV telemetry
  autoplay -sessions 500 -give-up 60 -telemetry ./runs/soak1
`

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	baseURL := cfg.LeaderboardURL
	if baseURL == "" {
		baseURL = defaultURL
	}

	var (
		url         = flag.String("url", baseURL, "Base URL of the leaderboard service")
		sessions    = flag.Int("sessions", defaultSessions, "Number of sessions to play and submit")
		workers     = flag.Int("workers", runtime.NumCPU(), "Sessions played concurrently")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from the leaderboard")
		dt          = flag.Float64("dt", autoplay.DefaultDT, "Simulated seconds per frame")
		giveUp      = flag.Float64("give-up", defaultGiveUp, "Simulated seconds before a bot stops playing")
		seed        = flag.Uint64("seed", cfg.Seed, "Base seed; session i uses seed+i")
		name        = flag.String("name", "bot", "Bot name prefix")
		telemetryTo = flag.String("telemetry", cfg.TelemetryDir, "Directory for samples.csv and sessions.csv")
		sampleEvery = flag.Uint64("sample-every", defaultSampleEvery, "Telemetry sample interval in ticks")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait        = flag.Duration("wait", defaultWait, "How long to wait for submissions to be ranked")
		logFile     = flag.String("log", cfg.LogFile, "Log file (default: stdout)")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		os.Stdout.WriteString(usage)
		flag.PrintDefaults()
		return nil
	}

	if err := setupLogging(*logFile, cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	log := logger.Get().Named("autoplay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	lb, err := client.New(*url, client.WithTimeout(*timeout))
	if err != nil {
		return err
	}

	recorder, err := telemetry.NewRecorder(*telemetryTo, telemetry.WithEvery(*sampleEvery))
	if err != nil {
		return fmt.Errorf("failed to open telemetry: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warn(ctx, "telemetry close failed", logger.Error(err))
		}
	}()

	soak := autoplay.Config{
		Sessions:    *sessions,
		Workers:     *workers,
		DT:          *dt,
		GiveUpAfter: *giveUp,
		Seed:        *seed,
		TopN:        *topN,
		WaitTimeout: *wait,
		NamePrefix:  *name,
	}
	if recorder != nil {
		soak.Observers = append(soak.Observers, recorder)
	}

	if _, err := autoplay.Soak(ctx, soak, lb); err != nil {
		log.Error(ctx, "soak failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "soak passed", logger.String("telemetry_dir", recorder.Dir()))
	return nil
}

func setupLogging(path, level string) error {
	if path == "" {
		if err := logger.Init(); err != nil {
			return err
		}
	} else if _, err := logger.InitFile(path); err != nil {
		return err
	}
	if err := logger.SetLevelString(level); err != nil {
		return logger.SetLevelString("info")
	}
	return nil
}
