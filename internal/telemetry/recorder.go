// Package telemetry records session samples and per-session summaries as CSV.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
)

const (
	samplesFile  = "samples.csv"
	sessionsFile = "sessions.csv"

	defaultEvery = 64
)

// Session outcomes written to sessions.csv.
const (
	OutcomeGameOver = "game_over"
	OutcomeEnded    = "ended"
)

// Recorder writes samples.csv and sessions.csv into a directory. It is safe
// for concurrent use by several runners. A nil Recorder records nothing.
type Recorder struct {
	dir   string
	every uint64

	mu            sync.Mutex
	samplesFile   *os.File
	sessionsFile  *os.File
	samplesHeader bool
	sessionHeader bool
	open          map[string]*sessionLog
	summaries     []Summary

	logger logger.Logger
}

type sessionLog struct {
	lastTick uint64
	sampled  bool
	samples  []Sample
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithEvery samples every n ticks.
func WithEvery(n uint64) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.every = n
		}
	}
}

// WithLogger sets the recorder logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates dir and the two CSV files in it.
// Returns nil if dir is empty (telemetry disabled).
func NewRecorder(dir string, opts ...Option) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	r := &Recorder{
		dir:   dir,
		every: defaultEvery,
		open:  make(map[string]*sessionLog),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("telemetry")
	}

	f, err := os.Create(filepath.Join(dir, samplesFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", samplesFile, err)
	}
	r.samplesFile = f

	f, err = os.Create(filepath.Join(dir, sessionsFile))
	if err != nil {
		_ = r.samplesFile.Close()
		return nil, fmt.Errorf("creating %s: %w", sessionsFile, err)
	}
	r.sessionsFile = f
	return r, nil
}

// Dir returns the output directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Observe samples snap every N ticks and closes the session's summary on
// game over or session end. It matches runner.Observer.
func (r *Recorder) Observe(ctx context.Context, snap game.Snapshot, events []game.Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range events {
		if e.Kind == game.EventSessionStarted {
			r.open[snap.SessionID] = &sessionLog{}
		}
	}

	log, ok := r.open[snap.SessionID]
	if ok && snap.State == game.StatePlaying && (!log.sampled || snap.Tick-log.lastTick >= r.every) {
		s := sampleOf(snap)
		log.samples = append(log.samples, s)
		log.lastTick = snap.Tick
		log.sampled = true
		if err := r.writeSample(s); err != nil {
			r.logger.Warn(ctx, "sample not written", logger.Error(err))
		}
	}

	for _, e := range events {
		switch e.Kind {
		case game.EventGameOver:
			r.closeSession(ctx, snap, OutcomeGameOver, e.Score)
		case game.EventSessionEnded:
			r.closeSession(ctx, snap, OutcomeEnded, snap.Score)
		}
	}
}

// Summaries returns the summaries written so far.
func (r *Recorder) Summaries() []Summary {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Summary(nil), r.summaries...)
}

// Close flushes and closes both files.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{r.samplesFile, r.sessionsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.samplesFile, r.sessionsFile = nil, nil
	return firstErr
}

// closeSession writes the summary once; a game over followed by an end
// only produces the game over row.
func (r *Recorder) closeSession(ctx context.Context, snap game.Snapshot, outcome string, score float64) {
	log, ok := r.open[snap.SessionID]
	if !ok {
		return
	}
	delete(r.open, snap.SessionID)

	sum := Summarize(log.samples)
	sum.SessionID = snap.SessionID
	sum.Outcome = outcome
	sum.Score = score
	sum.DurationS = snap.Elapsed
	r.summaries = append(r.summaries, sum)

	if err := r.writeSummary(sum); err != nil {
		r.logger.Warn(ctx, "session summary not written",
			logger.String("session_id", sum.SessionID),
			logger.Error(err),
		)
		return
	}
	r.logger.Debug(ctx, "session summarized",
		logger.String("session_id", sum.SessionID),
		logger.String("outcome", outcome),
		logger.Float64("score", sum.Score),
		logger.Int("samples", sum.Samples),
	)
}

func (r *Recorder) writeSample(s Sample) error {
	if r.samplesFile == nil {
		return os.ErrClosed
	}
	records := []Sample{s}
	if !r.samplesHeader {
		if err := gocsv.Marshal(records, r.samplesFile); err != nil {
			return fmt.Errorf("writing sample: %w", err)
		}
		r.samplesHeader = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.samplesFile); err != nil {
		return fmt.Errorf("writing sample: %w", err)
	}
	return nil
}

func (r *Recorder) writeSummary(s Summary) error {
	if r.sessionsFile == nil {
		return os.ErrClosed
	}
	records := []Summary{s}
	if !r.sessionHeader {
		if err := gocsv.Marshal(records, r.sessionsFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		r.sessionHeader = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.sessionsFile); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func sampleOf(snap game.Snapshot) Sample {
	clocks := 0
	for _, c := range snap.Clocks {
		if !c.Main {
			clocks++
		}
	}
	return Sample{
		SessionID: snap.SessionID,
		Tick:      snap.Tick,
		Time:      snap.Elapsed,
		Oil:       snap.Player.OilLevel,
		Leak:      snap.Player.OilLeak,
		Score:     snap.Score,
		Clocks:    clocks,
		Active:    snap.Active,
		Synced:    snap.Synced,
	}
}
