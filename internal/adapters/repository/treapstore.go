package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/clockery/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Every node carries its subtree size, which gives
// O(log n) expected position lookups. A second treap holds one node per
// distinct score so dense ranks are O(log n) as well.

// scoreScale controls fixed-point scaling from float64. Scores compare
// equal when they agree to six decimals.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID)
// in the leaderboard.
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.score, fresh.id, n.score, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// countBefore returns how many nodes sort strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	count := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in leaderboard order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

type record struct {
	name      string
	score     float64
	clocks    int
	duration  time.Duration
	createdAt time.Time
}

// TreapStore keeps the leaderboard in memory.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	distinct *node
	byID     map[string]record
	perScore map[scoreFP]int
	rng      *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:     make(map[string]record),
		perScore: make(map[scoreFP]int),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // treap priorities, not secrets
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert implements Store.Insert with O(log n) expected time.
func (s *TreapStore) Insert(_ context.Context, e Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreInsertLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	fp := toFixedPoint(e.Score)

	s.mu.Lock()
	if _, ok := s.byID[e.ID]; ok {
		s.mu.Unlock()
		return ErrDuplicate
	}
	s.byID[e.ID] = record{name: e.Name, score: e.Score, clocks: e.Clocks, duration: e.Duration, createdAt: e.CreatedAt}
	s.root = insert(s.root, &node{id: e.ID, score: fp, prio: s.rng.Uint64(), size: 1})
	if s.perScore[fp] == 0 {
		s.distinct = insert(s.distinct, &node{score: fp, prio: s.rng.Uint64(), size: 1})
	}
	s.perScore[fp]++
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLeaderboardEntries(count)
	return nil
}

// Rank returns the current rank of an entry in O(log n).
func (s *TreapStore) Rank(_ context.Context, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	fp := toFixedPoint(rec.score)
	e := s.entry(id, rec)
	e.Rank = 1 + countBefore(s.distinct, fp, "")
	return e, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]Entry, 0, len(nodes))
	rank := 0
	var prev scoreFP
	for i, nd := range nodes {
		if i == 0 || nd.score != prev {
			rank++
			prev = nd.score
		}
		e := s.entry(nd.id, s.byID[nd.id])
		e.Rank = rank
		out = append(out, e)
	}
	return out, nil
}

// Count returns the total number of entries.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close is a no-op; the store holds no external resources.
func (s *TreapStore) Close() error { return nil }

func (s *TreapStore) entry(id string, rec record) Entry {
	return Entry{
		ID:        id,
		Name:      rec.name,
		Score:     rec.score,
		Clocks:    rec.clocks,
		Duration:  rec.duration,
		CreatedAt: rec.createdAt,
	}
}
