package window

import (
	"sort"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

const (
	DefaultShortWindow = 30 * time.Second
	DefaultLongWindow  = 5 * time.Minute

	// StopSpeedThreshold is the speed (m/s) below which a sample counts as stopped.
	// A missing speed is treated as 0.
	StopSpeedThreshold = 0.5
)

// Sample is one point of movement history. It never carries coordinates.
type Sample struct {
	Timestamp time.Time
	Speed     *float64
	Bearing   *float64
}

// Stats summarizes the samples inside one time window.
type Stats struct {
	VelocityJitter    *float64 `json:"velocity_jitter"`
	BearingVolatility *float64 `json:"bearing_volatility"`
	PingCount         int      `json:"ping_count"`
}

// DualWindowFeatures compares a short (spike) window against a long (baseline) window.
type DualWindowFeatures struct {
	Short           Stats    `json:"short"`
	Long            Stats    `json:"long"`
	JitterRatio     *float64 `json:"jitter_ratio"`
	VolatilityRatio *float64 `json:"volatility_ratio"`
	IsStopEvent     bool     `json:"is_stop_event"`
	StopDurationSec *int     `json:"stop_duration_sec"`
}

// Features is the single-window view kept for older callers.
type Features struct {
	VelocityJitter    *float64
	BearingVolatility *float64
	IsStopEvent       bool
	StopDurationSec   *int
}

// ComputeDualWindow derives short and long window statistics for current
// against history. Zero window lengths fall back to the defaults. History
// order does not matter.
func ComputeDualWindow(current Sample, history []Sample, short, long time.Duration) DualWindowFeatures {
	if short <= 0 {
		short = DefaultShortWindow
	}
	if long <= 0 {
		long = DefaultLongWindow
	}

	shortSamples := windowSamples(current, history, short)
	longSamples := windowSamples(current, history, long)

	f := DualWindowFeatures{
		Short: summarize(shortSamples),
		Long:  summarize(longSamples),
	}
	f.JitterRatio = ratio(f.Short.VelocityJitter, f.Long.VelocityJitter)
	f.VolatilityRatio = ratio(f.Short.BearingVolatility, f.Long.BearingVolatility)
	f.IsStopEvent, f.StopDurationSec = stopState(current, longSamples[:len(longSamples)-1])

	return f
}

// ComputeWindowFeatures computes jitter, volatility and stop state over a single window.
func ComputeWindowFeatures(current Sample, history []Sample, window time.Duration) Features {
	if window <= 0 {
		window = DefaultLongWindow
	}

	samples := windowSamples(current, history, window)
	s := summarize(samples)
	stopped, duration := stopState(current, samples[:len(samples)-1])

	return Features{
		VelocityJitter:    s.VelocityJitter,
		BearingVolatility: s.BearingVolatility,
		IsStopEvent:       stopped,
		StopDurationSec:   duration,
	}
}

// windowSamples returns history samples in [current-w, current] sorted
// ascending by timestamp, with current appended last.
func windowSamples(current Sample, history []Sample, w time.Duration) []Sample {
	start := current.Timestamp.Add(-w)

	out := make([]Sample, 0, len(history)+1)
	for _, s := range history {
		if s.Timestamp.Before(start) || s.Timestamp.After(current.Timestamp) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return append(out, current)
}

func summarize(samples []Sample) Stats {
	var speeds, bearings []float64
	for _, s := range samples {
		if s.Speed != nil {
			speeds = append(speeds, *s.Speed)
		}
		if s.Bearing != nil {
			bearings = append(bearings, *s.Bearing)
		}
	}

	st := Stats{PingCount: len(samples)}
	if sd, ok := stats.StdDev(speeds); ok {
		st.VelocityJitter = &sd
	}
	if v, ok := spatial.BearingVolatility(bearings); ok {
		st.BearingVolatility = &v
	}
	return st
}

func ratio(short, long *float64) *float64 {
	if short == nil || long == nil || *long <= 0 {
		return nil
	}
	r := *short / *long
	return &r
}

func isStopped(s Sample) bool {
	speed := 0.0
	if s.Speed != nil {
		speed = *s.Speed
	}
	return speed < StopSpeedThreshold
}

// stopState reports whether current is stopped and, if so, for how long.
// history must be sorted ascending and exclude current. The duration walks
// back from the newest sample until a moving sample is found.
func stopState(current Sample, history []Sample) (bool, *int) {
	if !isStopped(current) {
		return false, nil
	}

	duration := 0
	if len(history) == 0 {
		return true, &duration
	}

	stopStart := current.Timestamp
	for i := len(history) - 1; i >= 0; i-- {
		if !isStopped(history[i]) {
			break
		}
		stopStart = history[i].Timestamp
	}

	duration = int(current.Timestamp.Sub(stopStart).Seconds())
	return true, &duration
}
