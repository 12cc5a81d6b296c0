// Package risk derives a 0-100 reactivity score and plain-language summaries
// from window features and environmental context. Nothing here has state.
package risk

import (
	"math"

	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

// Level buckets a score.
type Level string

const (
	Low      Level = "low"
	Moderate Level = "moderate"
	High     Level = "high"
)

var levelColors = map[Level]string{
	Low:      "#22c55e",
	Moderate: "#eab308",
	High:     "#ef4444",
}

// Color returns the dashboard color for a level.
func (l Level) Color() string {
	return levelColors[l]
}

// Weights holds the tunable scoring constants. Each component contributes
// Max * min(1, value/Scale).
type Weights struct {
	JitterMax   float64
	JitterScale float64 // m/s

	VolatilityMax   float64
	VolatilityScale float64 // degrees

	StopMax   float64
	StopScale float64 // seconds

	SurgeMax   float64
	DropMax    float64
	DeltaScale float64 // busyness points

	CrowdThreshold float64 // busyness percent
	CrowdMax       float64
	CrowdScale     float64

	SpikeRatio      float64
	SpikeMultiplier float64

	HighThreshold     float64
	ModerateThreshold float64
}

// DefaultWeights are the production scoring constants.
var DefaultWeights = Weights{
	JitterMax:         25,
	JitterScale:       2.0,
	VolatilityMax:     25,
	VolatilityScale:   90,
	StopMax:           10,
	StopScale:         180,
	SurgeMax:          30,
	DropMax:           20,
	DeltaScale:        40,
	CrowdThreshold:    70,
	CrowdMax:          10,
	CrowdScale:        30,
	SpikeRatio:        1.5,
	SpikeMultiplier:   1.2,
	HighThreshold:     70,
	ModerateThreshold: 40,
}

// Input is the feature snapshot a score is derived from. Nil means undefined.
type Input struct {
	ShortJitter     *float64
	LongJitter      *float64
	ShortVolatility *float64
	LongVolatility  *float64
	JitterRatio     *float64
	IsStopEvent     bool
	StopDurationSec *int
	BusynessPct     *float64
	BusynessDelta   *float64
}

// Assessment is a scored snapshot. It is derived on read and never stored.
type Assessment struct {
	Score float64 `json:"score"`
	Level Level   `json:"level"`
	Color string  `json:"color"`
}

// Score rates in with DefaultWeights.
func Score(in Input) Assessment {
	return DefaultWeights.Score(in)
}

// Score rates in. Short-window statistics are preferred over long-window
// ones; a statistic missing from both windows counts as 0.
func (w Weights) Score(in Input) Assessment {
	jitter := firstDefined(in.ShortJitter, in.LongJitter)
	volatility := firstDefined(in.ShortVolatility, in.LongVolatility)

	total := scaled(jitter, w.JitterScale, w.JitterMax)
	total += scaled(volatility, w.VolatilityScale, w.VolatilityMax)

	if in.IsStopEvent && in.StopDurationSec != nil && *in.StopDurationSec > 0 {
		total += scaled(float64(*in.StopDurationSec), w.StopScale, w.StopMax)
	}

	if in.BusynessDelta != nil {
		delta := *in.BusynessDelta
		if delta > 0 {
			total += scaled(delta, w.DeltaScale, w.SurgeMax)
		} else if delta < 0 {
			total += scaled(math.Abs(delta), w.DeltaScale, w.DropMax)
		}
	}

	if in.BusynessPct != nil && *in.BusynessPct > w.CrowdThreshold {
		total += scaled(*in.BusynessPct-w.CrowdThreshold, w.CrowdScale, w.CrowdMax)
	}

	if in.JitterRatio != nil && *in.JitterRatio > w.SpikeRatio {
		total *= w.SpikeMultiplier
	}

	score := stats.Round(stats.Clamp(total, 0, 100), 1)
	level := w.LevelFor(score)
	return Assessment{Score: score, Level: level, Color: level.Color()}
}

// LevelFor buckets a score.
func (w Weights) LevelFor(score float64) Level {
	switch {
	case score >= w.HighThreshold:
		return High
	case score >= w.ModerateThreshold:
		return Moderate
	default:
		return Low
	}
}

func firstDefined(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func scaled(value, scale, max float64) float64 {
	if value <= 0 || scale <= 0 {
		return 0
	}
	return math.Min(max, value/scale*max)
}
