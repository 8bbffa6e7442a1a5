package autoplay

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/clockery/internal/domain/types"
)

// Config defaults.
const (
	defaultSessions    = 16
	defaultGiveUpAfter = 120.0
	defaultTopN        = 50
	defaultWaitTimeout = 30 * time.Second
	defaultNamePrefix  = "bot"
)

// Leaderboard is the part of the leaderboard client a soak needs.
// *client.Client satisfies it.
type Leaderboard interface {
	Health(ctx context.Context) error
	Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error)
	Rank(ctx context.Context, id string) (types.Entry, error)
	Top(ctx context.Context, limit int) ([]types.Entry, error)
}

// Config holds configuration for a soak run.
type Config struct {
	Sessions    int           // Number of sessions to play
	Workers     int           // Sessions played and submitted concurrently
	DT          float64       // Simulated seconds per frame
	GiveUpAfter float64       // Simulated seconds before bots stop playing
	Seed        uint64        // Base seed; session i uses Seed+i
	TopN        int           // Leaderboard entries fetched for verification
	WaitTimeout time.Duration // How long to wait for workers to store submissions
	NamePrefix  string        // Bot names are NamePrefix-<i>
	Observers   []Observer    // Frame observers, e.g. a telemetry recorder
}

func (c Config) withDefaults() Config {
	if c.Sessions <= 0 {
		c.Sessions = defaultSessions
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	c.Workers = min(c.Workers, c.Sessions)
	if c.DT <= 0 {
		c.DT = DefaultDT
	}
	if c.GiveUpAfter <= 0 {
		c.GiveUpAfter = defaultGiveUpAfter
	}
	if c.TopN <= 0 {
		c.TopN = defaultTopN
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = defaultWaitTimeout
	}
	if c.NamePrefix == "" {
		c.NamePrefix = defaultNamePrefix
	}
	return c
}

// Stats holds soak statistics.
type Stats struct {
	SessionsPlayed     int
	SessionsFailed     int
	Submitted          int
	Accepted           int
	Duplicate          int
	SubmitFailed       int
	RanksRetrieved     int
	LeaderboardEntries int
	BestScore          float64
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
