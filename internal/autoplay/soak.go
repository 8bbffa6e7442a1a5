package autoplay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/clockery/internal/adapters/http/client"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/internal/game"
	"github.com/okian/clockery/pkg/logger"
)

const rankPollInterval = 100 * time.Millisecond

// Soak plays sessions with bots, submits every result to lb, waits until the
// workers stored them and verifies the ranks and the leaderboard order.
func Soak(ctx context.Context, cfg Config, lb Leaderboard) (Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("autoplay")
	stats := Stats{StartTime: time.Now()}

	log.Info(ctx, "starting soak",
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.Float64("dt", cfg.DT),
		logger.Float64("give_up_after_s", cfg.GiveUpAfter),
		logger.Uint64("seed", cfg.Seed),
	)

	if err := lb.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	results := playSessions(ctx, cfg, &stats)
	if len(results) == 0 {
		return stats, errors.New("no session finished")
	}

	submitted := submitResults(ctx, cfg, lb, results, &stats)
	if len(submitted) == 0 {
		return stats, errors.New("no submission accepted")
	}

	ranks, err := waitForRanks(ctx, cfg, lb, submitted)
	stats.RanksRetrieved = len(ranks)
	if err != nil {
		return stats, fmt.Errorf("waiting for ranks: %w", err)
	}

	top, err := lb.Top(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(top)

	if err := VerifyLeaderboard(top); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}
	if err := VerifyRanks(submitted, ranks, top); err != nil {
		return stats, fmt.Errorf("rank verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

// playSessions plays cfg.Sessions sessions on cfg.Workers goroutines. Each
// session stays on one goroutine for its whole life.
func playSessions(ctx context.Context, cfg Config, stats *Stats) []game.Result {
	results := make([]game.Result, cfg.Sessions)
	ok := make([]bool, cfg.Sessions)
	indices := make(chan int, cfg.Workers*2)

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					return
				}
				session := game.NewSession(game.WithSeed(cfg.Seed + uint64(i)))
				bot := NewBot(cfg.NamePrefix+"-"+strconv.Itoa(i), cfg.GiveUpAfter)
				res, err := Play(ctx, session, bot, cfg.DT, cfg.Observers...)
				if err != nil {
					logger.Get().Warn(ctx, "session failed", logger.Int("index", i), logger.Error(err))
					continue
				}
				results[i], ok[i] = res, true
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range cfg.Sessions {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()
	wg.Wait()

	played := make([]game.Result, 0, cfg.Sessions)
	for i, res := range results {
		if !ok[i] {
			continue
		}
		played = append(played, res)
		stats.BestScore = max(stats.BestScore, res.Score)
	}
	stats.SessionsPlayed = len(played)
	stats.SessionsFailed = cfg.Sessions - len(played)
	return played
}

// submitResults posts every result and returns the ones the service took,
// accepted or already known.
func submitResults(ctx context.Context, cfg Config, lb Leaderboard, results []game.Result, stats *Stats) []game.Result {
	var accepted, duplicate, failed atomic.Int64
	kept := make([]bool, len(results))
	indices := make(chan int, cfg.Workers*2)

	var wg sync.WaitGroup
	for range min(cfg.Workers, len(results)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				resp, err := lb.Submit(ctx, SubmitRequest(results[i]))
				if err != nil {
					failed.Add(1)
					logger.Get().Warn(ctx, "submit failed",
						logger.String("session_id", results[i].SessionID),
						logger.Error(err),
					)
					continue
				}
				if resp.Status == types.StatusDuplicate {
					duplicate.Add(1)
				} else {
					accepted.Add(1)
				}
				kept[i] = true
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range results {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = len(results)
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.SubmitFailed = int(failed.Load())

	out := make([]game.Result, 0, len(results))
	for i, res := range results {
		if kept[i] {
			out = append(out, res)
		}
	}
	return out
}

// SubmitRequest converts a finished session into the leaderboard request.
// The session id doubles as the idempotency key.
func SubmitRequest(r game.Result) types.SubmitRequest {
	return types.SubmitRequest{
		SubmissionID: r.SessionID,
		Name:         r.Name,
		Score:        r.Score,
		DurationS:    r.Duration,
		Clocks:       r.Clocks,
	}
}

// waitForRanks polls until every result is ranked or cfg.WaitTimeout passes.
func waitForRanks(ctx context.Context, cfg Config, lb Leaderboard, results []game.Result) (map[string]types.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	ranks := make(map[string]types.Entry, len(results))
	ticker := time.NewTicker(rankPollInterval)
	defer ticker.Stop()

	for {
		for _, r := range results {
			if _, done := ranks[r.SessionID]; done {
				continue
			}
			e, err := lb.Rank(ctx, r.SessionID)
			switch {
			case err == nil:
				ranks[r.SessionID] = e
			case errors.Is(err, client.ErrNotFound):
			case ctx.Err() != nil:
				return ranks, fmt.Errorf("%d of %d ranked: %w", len(ranks), len(results), ctx.Err())
			default:
				return ranks, fmt.Errorf("rank %s: %w", r.SessionID, err)
			}
		}
		if len(ranks) == len(results) {
			return ranks, nil
		}

		select {
		case <-ctx.Done():
			return ranks, fmt.Errorf("%d of %d ranked: %w", len(ranks), len(results), ctx.Err())
		case <-ticker.C:
		}
	}
}

func logStats(ctx context.Context, log logger.Logger, stats Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SessionsPlayed) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("sessions_played", stats.SessionsPlayed),
		logger.Int("sessions_failed", stats.SessionsFailed),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("submit_failed", stats.SubmitFailed),
		logger.Int("ranks_retrieved", stats.RanksRetrieved),
		logger.Int("leaderboard_entries", stats.LeaderboardEntries),
		logger.Float64("best_score", stats.BestScore),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sessions_per_second", perSecond),
	)
}
