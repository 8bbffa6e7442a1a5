// Package worker turns queued score submissions into leaderboard entries.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/clockery/internal/adapters/repository"
	"github.com/okian/clockery/internal/domain/model"
	"github.com/okian/clockery/internal/domain/scoring"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/pkg/logger"
	"github.com/okian/clockery/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Submission abstracts what workers read off the queue.
type Submission = model.Submission

// Validator checks a submission and normalizes it into an entry.
type Validator interface {
	Validate(ctx context.Context, s model.Submission) (model.Entry, error)
}

// Store persists entries and reports their rank.
type Store interface {
	Insert(ctx context.Context, e repository.Entry) error
	Rank(ctx context.Context, id string) (repository.Entry, error)
}

// Publisher announces a newly ranked entry, e.g. to websocket clients.
type Publisher interface {
	Publish(ctx context.Context, e types.Entry)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	validator Validator
	store     Store
	publisher Publisher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, validator Validator, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		validator: validator,
		store:     store,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-subs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, s); err != nil {
				w.logger.Warn(ctx, "submission not stored",
					logger.String("submission_id", s.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process validates, stores and publishes one submission.
func (w *InMemoryWorker) process(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	e, err := w.validator.Validate(ctx, s)
	if err != nil {
		if errors.Is(err, scoring.ErrImplausibleScore) || errors.Is(err, scoring.ErrInvalidSubmission) {
			metrics.RecordSubmissionRejected()
		} else {
			metrics.RecordWorkerError()
		}
		return fmt.Errorf("validate %s: %w", s.ID, err)
	}

	err = w.store.Insert(ctx, repository.Entry{
		ID:        e.ID,
		Name:      e.Name,
		Score:     e.Score,
		Clocks:    e.Clocks,
		Duration:  e.Duration,
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Already stored by an earlier delivery; nothing to announce.
			metrics.RecordSubmissionDuplicate()
			return nil
		}
		metrics.RecordWorkerError()
		return fmt.Errorf("store %s: %w", s.ID, err)
	}
	metrics.RecordLeaderboardUpdate()

	if w.publisher == nil {
		return nil
	}
	ranked, err := w.store.Rank(ctx, e.ID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("rank %s: %w", s.ID, err)
	}
	w.publisher.Publish(ctx, types.Entry{Rank: ranked.Rank, ID: ranked.ID, Name: ranked.Name, Score: ranked.Score})
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A count below one uses the CPU count.
func NewPool(workerCount int, queue Queue, validator Validator, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, validator, store, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("pool drain: %w", shutdownCtx.Err())
	}
	return nil
}
