// Package service wires the leaderboard pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/okian/clockery/internal/adapters/http/api"
	"github.com/okian/clockery/internal/adapters/http/site"
	"github.com/okian/clockery/internal/adapters/http/swagger"
	"github.com/okian/clockery/internal/adapters/http/ws"
	submissionqueue "github.com/okian/clockery/internal/adapters/mq/queue"
	workerpool "github.com/okian/clockery/internal/adapters/mq/worker"
	"github.com/okian/clockery/internal/adapters/repository"
	"github.com/okian/clockery/internal/domain/dedupe"
	"github.com/okian/clockery/internal/domain/model"
	"github.com/okian/clockery/internal/domain/scoring"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/pkg/logger"
	"github.com/okian/clockery/pkg/metrics"
)

// Store kinds accepted by WithStore.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ErrNotStarted is returned by operations that need a running service.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	deduper   dedupe.Deduper
	queue     *submissionqueue.InMemoryQueue
	validator *scoring.Validator
	pool      *workerpool.Pool
	hub       *ws.Hub

	workerCount  int
	queueSize    int
	dedupeSize   int
	storeKind    string
	sqlitePath   string
	defaultLimit int
	maxLimit     int
	injected     repository.Store

	duplicates atomic.Int64
	started    bool
	cancel     context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   100_000,
		storeKind:    StoreMemory,
		defaultLimit: 25,
		maxLimit:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the hub and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting leaderboard service...")

	store, err := s.openStore(ctx)
	if err != nil {
		return err
	}
	s.store = store
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = submissionqueue.NewInMemoryQueue(submissionqueue.WithCapacity(s.queueSize))
	s.validator = scoring.NewValidator()
	s.hub = ws.NewHub()

	// Workers must keep draining after the caller's ctx is cancelled;
	// Stop bounds the drain instead.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.hub.Run(runCtx)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.validator, s.store,
		workerpool.WithPublisher(s.hub),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(runCtx)
	metrics.UpdateLeaderboardEntries(s.store.Count(ctx))

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("store", s.storeKind),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.injected != nil {
		return s.injected, nil
	}
	switch s.storeKind {
	case StoreMemory:
		s.logger.Info(ctx, "using treap store")
		return repository.NewTreapStore(), nil
	case StoreSQLite:
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
		st, err := repository.NewSQLiteStore(ctx, s.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q", s.storeKind)
	}
}

// Stop drains queued submissions, stops the hub and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping leaderboard service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
	return errors.Join(errs...)
}

// Register attaches the API, docs, board and websocket routes to mux.
func (s *Service) Register(ctx context.Context, mux *http.ServeMux) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}

	api.NewServer(s, s, s.validator, api.WithLimits(s.defaultLimit, s.maxLimit)).Register(ctx, mux)
	mux.HandleFunc("/ws", api.MetricsMiddleware(s.hub.ServeHTTP, "ws"))
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	return nil
}

// SeenAndRecord reports whether id was already submitted, recording it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		s.duplicates.Add(1)
	}
	return seen
}

// Unrecord forgets id so the client may retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of ids held by the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue hands a submission to the worker pool. Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	ok := s.queue.Enqueue(ctx, sub)
	if !ok {
		s.logger.Warn(ctx, "submission queue full", logger.String("submission_id", sub.ID))
	}
	return ok
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toAPI(e)
	}
	return out, nil
}

// Rank returns the ranked entry for a submission id.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	e, err := s.store.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return toAPI(e), nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Stats{}
	}

	st := types.Stats{
		Entries:    s.store.Count(ctx),
		QueueDepth: s.queue.Len(ctx),
		Deduped:    s.duplicates.Load(),
	}
	if top, err := s.store.TopN(ctx, 1); err == nil && len(top) > 0 {
		st.TopScore = top[0].Score
	}

	st.Viewers = s.hub.Clients()

	metrics.UpdateLeaderboardEntries(st.Entries)
	metrics.UpdateQueueSize(st.QueueDepth)
	return st
}

func toAPI(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, ID: e.ID, Name: e.Name, Score: e.Score}
}
