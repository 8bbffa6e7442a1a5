package telemetry

import (
	"gonum.org/v1/gonum/stat"
)

// Sample is one row of samples.csv.
type Sample struct {
	SessionID string  `csv:"session_id"`
	Tick      uint64  `csv:"tick"`
	Time      float64 `csv:"t"`
	Oil       float64 `csv:"oil"`
	Leak      float64 `csv:"leak"`
	Score     float64 `csv:"score"`
	Clocks    int     `csv:"clocks"`
	Active    int     `csv:"active"`
	Synced    int     `csv:"synced"`
}

// SyncRatio is the share of active clocks in sync with the main clock.
func (s Sample) SyncRatio() float64 {
	if s.Active == 0 {
		return 0
	}
	return float64(s.Synced) / float64(s.Active)
}

// Summary is one row of sessions.csv.
type Summary struct {
	SessionID  string  `csv:"session_id"`
	Outcome    string  `csv:"outcome"`
	Score      float64 `csv:"score"`
	DurationS  float64 `csv:"duration_s"`
	Samples    int     `csv:"samples"`
	PeakClocks int     `csv:"peak_clocks"`
	OilMean    float64 `csv:"oil_mean"`
	OilStd     float64 `csv:"oil_std"`
	OilMin     float64 `csv:"oil_min"`
	SyncMean   float64 `csv:"sync_mean"`
	SyncStd    float64 `csv:"sync_std"`
}

// Summarize reduces a session's samples. Score and duration come from the
// last sample; callers overwrite them with the final values when known.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	oil := make([]float64, len(samples))
	sync := make([]float64, len(samples))
	sum := Summary{
		SessionID: samples[0].SessionID,
		Samples:   len(samples),
		OilMin:    samples[0].Oil,
	}
	for i, s := range samples {
		oil[i] = s.Oil
		sync[i] = s.SyncRatio()
		sum.OilMin = min(sum.OilMin, s.Oil)
		sum.PeakClocks = max(sum.PeakClocks, s.Clocks)
	}
	last := samples[len(samples)-1]
	sum.Score = last.Score
	sum.DurationS = last.Time

	sum.OilMean, sum.OilStd = meanStdDev(oil)
	sum.SyncMean, sum.SyncStd = meanStdDev(sync)
	return sum
}

// meanStdDev is stat.MeanStdDev with a zero deviation for single values,
// where the unbiased estimator is NaN.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
