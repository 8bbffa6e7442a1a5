package autoplay

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/internal/game"
)

// ErrVerification marks an inconsistent leaderboard.
var ErrVerification = errors.New("verification failed")

// scoreEpsilon absorbs the service's rounding to two decimals.
const scoreEpsilon = 0.005 + 1e-9

// VerifyLeaderboard checks that entries are ordered by score descending then
// id ascending, and that ranks are dense starting at 1.
func VerifyLeaderboard(entries []types.Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: entry %d (%s) scores above entry %d (%s)", ErrVerification, i, e.ID, i-1, prev.ID)
		case e.Score == prev.Score && e.ID <= prev.ID:
			return fmt.Errorf("%w: tied entries %s and %s out of id order", ErrVerification, prev.ID, e.ID)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %s and %s ranked %d and %d", ErrVerification, prev.ID, e.ID, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: entry %s ranked %d after rank %d", ErrVerification, e.ID, e.Rank, prev.Rank)
		}
	}
	return nil
}

// VerifyRanks checks that every submitted result is stored with its name and
// rounded score, and that results ranked strictly above the last entry of top
// appear in top with the same rank.
func VerifyRanks(results []game.Result, ranks map[string]types.Entry, top []types.Entry) error {
	inTop := make(map[string]types.Entry, len(top))
	for _, e := range top {
		inTop[e.ID] = e
	}
	cutoff := math.MaxInt
	if len(top) > 0 {
		cutoff = top[len(top)-1].Rank
	}

	for _, r := range results {
		got, ok := ranks[r.SessionID]
		if !ok {
			return fmt.Errorf("%w: %s was never ranked", ErrVerification, r.SessionID)
		}
		if got.Name != r.Name {
			return fmt.Errorf("%w: %s stored as %q, played as %q", ErrVerification, r.SessionID, got.Name, r.Name)
		}
		if math.Abs(got.Score-r.Score) > scoreEpsilon {
			return fmt.Errorf("%w: %s stored score %.2f, played %.4f", ErrVerification, r.SessionID, got.Score, r.Score)
		}
		if got.Rank >= cutoff {
			continue
		}
		listed, ok := inTop[r.SessionID]
		if !ok {
			return fmt.Errorf("%w: %s ranked %d is missing from the top %d", ErrVerification, r.SessionID, got.Rank, len(top))
		}
		if listed.Rank != got.Rank {
			return fmt.Errorf("%w: %s ranked %d but listed at %d", ErrVerification, r.SessionID, got.Rank, listed.Rank)
		}
	}
	return nil
}
