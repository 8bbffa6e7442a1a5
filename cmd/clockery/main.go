package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/clockery/internal/adapters/http/client"
	"github.com/okian/clockery/internal/audio"
	"github.com/okian/clockery/internal/config"
	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/internal/telemetry"
	"github.com/okian/clockery/internal/tui"
	"github.com/okian/clockery/pkg/logger"
)

// tcell owns stdout, so the game always logs to a file.
const defaultLogFile = "clockery.log"

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = defaultLogFile
	}
	logFile, err := logger.InitFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tuning, err := game.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	sink, closeSink := openSink(ctx, cfg, log)
	defer closeSink()

	recorder, err := telemetry.NewRecorder(cfg.TelemetryDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warn(ctx, "telemetry close failed", logger.Error(err))
		}
	}()

	board, err := newBoard(cfg)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	f := newFrontend(cfg, screen, tuning, seed, log)
	f.dispatcher = audio.NewDispatcher(sink, audio.WithLogger(log.Named("audio")))
	if recorder != nil {
		f.observers = append(f.observers, recorder)
	}
	if board != nil {
		f.board = board
	}

	log.Info(ctx, "clockery started",
		logger.Bool("audio", cfg.AudioEnabled),
		logger.String("leaderboard", cfg.LeaderboardURL),
		logger.String("telemetry_dir", recorder.Dir()),
		logger.Uint64("seed", seed),
	)

	go f.pollEvents(ctx)
	err = f.play(ctx)
	if !f.wait(cfg.SubmitTimeout()) {
		log.Warn(ctx, "gave up waiting for score submission")
	}
	log.Info(ctx, "clockery stopped")
	return err
}

func newFrontend(cfg *config.Config, screen tcell.Screen, tuning *game.Tuning, seed uint64, log logger.Logger) *frontend {
	return &frontend{
		screen:   screen,
		renderer: tui.NewRenderer(screen),
		mapper:   tui.NewInputMapper(cfg.HoldWindow()),
		prompt:   tui.NewNamePrompt(maxNameLength),
		tuning:   tuning,
		seed:     seed,
		interval: cfg.FrameInterval(),
		timeout:  cfg.SubmitTimeout(),
		player:   cfg.PlayerName,
		log:      log,
		keys:     make(chan *tcell.EventKey, keyBuffer),
	}
}

// openSink returns the speaker when audio is enabled and available, and a
// silent sink otherwise.
func openSink(ctx context.Context, cfg *config.Config, log logger.Logger) (audio.Sink, func()) {
	if !cfg.AudioEnabled {
		return audio.NullSink{}, func() {}
	}
	sink := audio.NewBeepSink(audio.WithSampleRate(cfg.SampleRate))
	if err := sink.Open(); err != nil {
		log.Warn(ctx, "audio unavailable; playing silently", logger.Error(err))
		return audio.NullSink{}, func() {}
	}
	return sink, func() {
		if err := sink.Close(); err != nil {
			log.Warn(ctx, "audio close failed", logger.Error(err))
		}
	}
}

// newBoard returns nil when no leaderboard is configured.
func newBoard(cfg *config.Config) (*client.Client, error) {
	if cfg.LeaderboardURL == "" {
		return nil, nil
	}
	return client.New(cfg.LeaderboardURL, client.WithTimeout(cfg.SubmitTimeout()))
}
