package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// Vec2 is a point in presentation space.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ClockPreset seeds an ordinary clock when it is created.
type ClockPreset struct {
	TimeLeft float64  `yaml:"time_left"`
	AudioKey SoundKey `yaml:"audio_key"`
	Hour     float64  `yaml:"hour"`
	Minute   float64  `yaml:"minute"`
}

// Tuning holds every gameplay constant. Values are loaded from the embedded
// tuning.yaml and may be overridden by a file.
type Tuning struct {
	Slots             []Vec2  `yaml:"slots"`
	LiftOffset        float64 `yaml:"lift_offset"`
	StartSlot         int     `yaml:"start_slot"`
	FirstClockSlot    int     `yaml:"first_clock_slot"`
	MainClock         Vec2    `yaml:"main_clock"`
	MainStartRotation float64 `yaml:"main_start_rotation"`

	// HourRate is the hour hand angular rate in rad/s. The minute hand runs
	// MinuteFactor times faster. HandSpeed scales both during ticking.
	HourRate      float64 `yaml:"hour_rate"`
	MinuteFactor  float64 `yaml:"minute_factor"`
	HandSpeed     float64 `yaml:"hand_speed"`
	SyncTolerance float64 `yaml:"sync_tolerance"`

	WindRate       float64 `yaml:"wind_rate"`
	MaxTimeLeft    float64 `yaml:"max_time_left"` // 0 disables the cap
	AccumulatorCap float64 `yaml:"accumulator_cap"`
	SetSpeedFactor float64 `yaml:"set_speed_factor"`
	SetTierBand    float64 `yaml:"set_tier_band"`

	OilMax     float64 `yaml:"oil_max"`
	OilStart   float64 `yaml:"oil_start"`
	DrinkRate  float64 `yaml:"drink_rate"`
	LeakStart  float64 `yaml:"leak_start"`
	LeakGrowth float64 `yaml:"leak_growth"`

	FixedStep     float64 `yaml:"fixed_step"`
	MaxFixedSteps int     `yaml:"max_fixed_steps"`

	Presets    []ClockPreset `yaml:"presets"`
	Thresholds []float64     `yaml:"thresholds"`
}

// DefaultTuning returns a fresh copy of the embedded tuning.
func DefaultTuning() *Tuning {
	t := &Tuning{}
	if err := yaml.Unmarshal(defaultTuningYAML, t); err != nil {
		panic(fmt.Sprintf("embedded tuning is malformed: %v", err))
	}
	return t
}

// LoadTuning returns the embedded tuning with the YAML file at path laid
// over it. An empty path yields the defaults.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tuning %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, t); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTuning, path, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MaxClocks is the number of ordinary clocks a session can reach.
func (t *Tuning) MaxClocks() int { return len(t.Presets) }

// Validate reports tables and rates that would break the simulation.
func (t *Tuning) Validate() error {
	n := len(t.Slots)
	switch {
	case n < 3:
		return fmt.Errorf("%w: need at least 3 slots, got %d", ErrInvalidTuning, n)
	case t.StartSlot < 0 || t.StartSlot >= n:
		return fmt.Errorf("%w: start_slot %d out of range", ErrInvalidTuning, t.StartSlot)
	case t.FirstClockSlot <= 0 || t.FirstClockSlot >= n-1:
		return fmt.Errorf("%w: first_clock_slot %d must be a clock slot", ErrInvalidTuning, t.FirstClockSlot)
	case t.FixedStep <= 0:
		return fmt.Errorf("%w: fixed_step must be positive", ErrInvalidTuning)
	case t.MaxFixedSteps < 1:
		return fmt.Errorf("%w: max_fixed_steps must be at least 1", ErrInvalidTuning)
	case t.SyncTolerance <= 0:
		return fmt.Errorf("%w: sync_tolerance must be positive", ErrInvalidTuning)
	case t.AccumulatorCap <= 0 || t.SetTierBand <= 0:
		return fmt.Errorf("%w: accumulator_cap and set_tier_band must be positive", ErrInvalidTuning)
	case t.OilMax <= 0 || t.OilStart <= 0 || t.OilStart > t.OilMax:
		return fmt.Errorf("%w: oil_start must be in (0, oil_max]", ErrInvalidTuning)
	case t.DrinkRate < 0 || t.LeakStart < 0 || t.LeakGrowth <= 0:
		return fmt.Errorf("%w: oil rates must be non-negative and leak_growth positive", ErrInvalidTuning)
	case len(t.Presets) == 0:
		return fmt.Errorf("%w: at least one clock preset is required", ErrInvalidTuning)
	case len(t.Thresholds) != len(t.Presets)-1:
		return fmt.Errorf("%w: want %d thresholds for %d presets, got %d",
			ErrInvalidTuning, len(t.Presets)-1, len(t.Presets), len(t.Thresholds))
	}

	seen := make(map[float64]int, n)
	for i, s := range t.Slots {
		if j, dup := seen[s.X]; dup {
			return fmt.Errorf("%w: slots %d and %d share x=%v", ErrInvalidTuning, j, i, s.X)
		}
		seen[s.X] = i
	}
	for i := 1; i < len(t.Thresholds); i++ {
		if t.Thresholds[i] <= t.Thresholds[i-1] {
			return fmt.Errorf("%w: thresholds must increase (index %d)", ErrInvalidTuning, i)
		}
	}
	for i, p := range t.Presets {
		if p.TimeLeft <= 0 || p.AudioKey == "" {
			return fmt.Errorf("%w: preset %d needs time_left > 0 and an audio_key", ErrInvalidTuning, i)
		}
	}
	return nil
}
