// Package scoring decides whether a submitted score could have been earned
// and normalizes it for storage.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/okian/clockery/internal/domain/model"
)

// Default validation constants.
const (
	defaultMaxClocks   = 6
	defaultRateFactor  = 2.0 // participation plus sync bonus per clock per second
	defaultPrecision   = 2
	defaultMaxNameLen  = 24
	defaultMinDuration = 0
)

// Validation failures.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrImplausibleScore  = errors.New("implausible score")
)

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithMaxClocks sets how many ordinary clocks a session can hold at once.
func WithMaxClocks(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxClocks = n
		}
	}
}

// WithRateFactor sets the best score per clock per second.
func WithRateFactor(f float64) Option {
	return func(v *Validator) {
		if f > 0 {
			v.rateFactor = f
		}
	}
}

// WithPrecision sets the number of decimals kept on stored scores.
func WithPrecision(decimals int) Option {
	return func(v *Validator) {
		if decimals >= 0 {
			v.precision = decimals
		}
	}
}

// WithMaxNameLength caps player names, counted in runes.
func WithMaxNameLength(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxNameLen = n
		}
	}
}

// Validator checks submissions before they reach the store.
type Validator struct {
	maxClocks  int
	rateFactor float64
	precision  int
	maxNameLen int
}

// NewValidator creates a Validator with configuration options.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		maxClocks:  defaultMaxClocks,
		rateFactor: defaultRateFactor,
		precision:  defaultPrecision,
		maxNameLen: defaultMaxNameLen,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxNameLength returns the name cap in runes.
func (v *Validator) MaxNameLength() int { return v.maxNameLen }

// CheckFields validates the fields a client controls directly. The HTTP
// layer calls it before enqueueing so bad input fails fast.
func (v *Validator) CheckFields(name string, score float64) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalidSubmission)
	case utf8.RuneCountInString(name) > v.maxNameLen:
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidSubmission, v.maxNameLen)
	case math.IsNaN(score) || math.IsInf(score, 0):
		return fmt.Errorf("%w: score must be finite", ErrInvalidSubmission)
	case score <= 0:
		return fmt.Errorf("%w: score must be positive", ErrInvalidSubmission)
	}
	return nil
}

// Validate checks a submission for plausibility and returns the entry to store.
// With a known duration the score cannot exceed maxClocks*rateFactor per second.
func (v *Validator) Validate(ctx context.Context, sub model.Submission) (model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return model.Entry{}, fmt.Errorf("context cancelled: %w", err)
	}
	if err := v.CheckFields(sub.Name, sub.Score); err != nil {
		return model.Entry{}, err
	}
	if sub.ID == "" {
		return model.Entry{}, fmt.Errorf("%w: missing id", ErrInvalidSubmission)
	}
	if sub.Duration < defaultMinDuration {
		return model.Entry{}, fmt.Errorf("%w: negative duration", ErrInvalidSubmission)
	}
	if sub.Clocks < 0 || sub.Clocks > v.maxClocks {
		return model.Entry{}, fmt.Errorf("%w: %d clocks, at most %d", ErrImplausibleScore, sub.Clocks, v.maxClocks)
	}
	if sub.Duration > 0 {
		limit := float64(v.maxClocks) * v.rateFactor * sub.Duration.Seconds()
		if sub.Score > limit {
			return model.Entry{}, fmt.Errorf("%w: %.2f in %s exceeds %.2f", ErrImplausibleScore, sub.Score, sub.Duration, limit)
		}
	}

	return model.Entry{
		ID:        sub.ID,
		Name:      strings.TrimSpace(sub.Name),
		Score:     v.round(sub.Score),
		Duration:  sub.Duration,
		Clocks:    sub.Clocks,
		CreatedAt: sub.ReceivedAt,
	}, nil
}

func (v *Validator) round(x float64) float64 {
	p := math.Pow(10, float64(v.precision))
	return math.Round(x*p) / p
}
