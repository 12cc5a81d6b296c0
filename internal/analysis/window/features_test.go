package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration, speed, bearing *float64) Sample {
	return Sample{Timestamp: t0.Add(offset), Speed: speed, Bearing: bearing}
}

func TestComputeDualWindow_SingleSample(t *testing.T) {
	feat := ComputeDualWindow(at(0, f(1.5), f(90)), nil, 0, 0)

	assert.Equal(t, 1, feat.Short.PingCount)
	assert.Equal(t, 1, feat.Long.PingCount)
	assert.Nil(t, feat.Short.VelocityJitter)
	assert.Nil(t, feat.Long.VelocityJitter)
	assert.Nil(t, feat.Short.BearingVolatility)
	assert.Nil(t, feat.JitterRatio)
	assert.Nil(t, feat.VolatilityRatio)
	assert.False(t, feat.IsStopEvent)
	assert.Nil(t, feat.StopDurationSec)
}

func TestComputeDualWindow_StoppedWithoutHistory(t *testing.T) {
	feat := ComputeDualWindow(at(0, nil, nil), nil, 0, 0)

	assert.True(t, feat.IsStopEvent)
	require.NotNil(t, feat.StopDurationSec)
	assert.Equal(t, 0, *feat.StopDurationSec)
}

func TestComputeDualWindow_ConstantMotion(t *testing.T) {
	var history []Sample
	for i := 1; i <= 20; i++ {
		history = append(history, at(-time.Duration(i)*10*time.Second, f(1.5), f(45)))
	}

	feat := ComputeDualWindow(at(0, f(1.5), f(45)), history, 0, 0)

	// 30s window: -30,-20,-10 plus current
	assert.Equal(t, 4, feat.Short.PingCount)
	// 5m window: -10..-200 (20 samples) plus current
	assert.Equal(t, 21, feat.Long.PingCount)
	require.NotNil(t, feat.Short.VelocityJitter)
	assert.InDelta(t, 0, *feat.Short.VelocityJitter, 1e-12)
	require.NotNil(t, feat.Long.BearingVolatility)
	assert.Zero(t, *feat.Long.BearingVolatility)
	// long jitter is zero, so no ratio
	assert.Nil(t, feat.JitterRatio)
	assert.Nil(t, feat.VolatilityRatio)
}

func TestComputeDualWindow_BurstRaisesJitterRatio(t *testing.T) {
	var history []Sample
	// calm baseline between 4m and 40s ago
	for s := 240; s >= 40; s -= 10 {
		speed := 1.0
		if (s/10)%2 == 0 {
			speed = 1.2
		}
		history = append(history, at(-time.Duration(s)*time.Second, f(speed), f(0)))
	}
	// erratic burst in the last 30s
	history = append(history,
		at(-25*time.Second, f(0.2), f(10)),
		at(-15*time.Second, f(3.5), f(200)),
		at(-5*time.Second, f(0.1), f(30)),
	)

	feat := ComputeDualWindow(at(0, f(4.0), f(250)), history, 0, 0)

	require.NotNil(t, feat.JitterRatio)
	assert.Greater(t, *feat.JitterRatio, 1.5)
	require.NotNil(t, feat.VolatilityRatio)
	assert.Greater(t, *feat.VolatilityRatio, 1.0)
	assert.False(t, feat.IsStopEvent)
}

func TestComputeDualWindow_FreezeDuration(t *testing.T) {
	history := []Sample{
		at(-60*time.Second, f(1.5), f(90)),
		at(-40*time.Second, f(0.3), nil),
		at(-20*time.Second, nil, nil),
		at(-10*time.Second, f(0.1), nil),
	}

	feat := ComputeDualWindow(at(0, f(0.2), nil), history, 0, 0)

	assert.True(t, feat.IsStopEvent)
	require.NotNil(t, feat.StopDurationSec)
	assert.Equal(t, 40, *feat.StopDurationSec)
}

func TestComputeDualWindow_StopDurationIgnoresSamplesOutsideLongWindow(t *testing.T) {
	history := []Sample{
		at(-10*time.Minute, f(0), nil),
		at(-4*time.Minute, f(0), nil),
	}

	feat := ComputeDualWindow(at(0, f(0), nil), history, 0, 0)

	require.NotNil(t, feat.StopDurationSec)
	assert.Equal(t, 240, *feat.StopDurationSec)
}

func TestComputeDualWindow_HistoryOrderDoesNotMatter(t *testing.T) {
	ordered := []Sample{
		at(-25*time.Second, f(1), f(0)),
		at(-15*time.Second, f(2), f(90)),
		at(-5*time.Second, f(1), f(180)),
	}
	shuffled := []Sample{ordered[2], ordered[0], ordered[1]}
	current := at(0, f(2), f(270))

	assert.Equal(t,
		ComputeDualWindow(current, ordered, 0, 0),
		ComputeDualWindow(current, shuffled, 0, 0))
}

func TestComputeDualWindow_ExcludesFutureSamples(t *testing.T) {
	history := []Sample{
		at(-10*time.Second, f(1), nil),
		at(5*time.Second, f(9), nil),
	}

	feat := ComputeDualWindow(at(0, f(1), nil), history, 0, 0)
	assert.Equal(t, 2, feat.Short.PingCount)
}

func TestComputeDualWindow_WindowBoundaryInclusive(t *testing.T) {
	history := []Sample{at(-30*time.Second, f(1), nil)}

	feat := ComputeDualWindow(at(0, f(1), nil), history, 30*time.Second, time.Minute)
	assert.Equal(t, 2, feat.Short.PingCount)
}

func TestComputeWindowFeatures_MatchesLongWindow(t *testing.T) {
	history := []Sample{
		at(-200*time.Second, f(1), f(10)),
		at(-100*time.Second, f(2), f(80)),
		at(-20*time.Second, f(0.4), f(90)),
	}
	current := at(0, f(0.3), f(95))

	dual := ComputeDualWindow(current, history, 0, 0)
	legacy := ComputeWindowFeatures(current, history, 0)

	assert.Equal(t, dual.Long.VelocityJitter, legacy.VelocityJitter)
	assert.Equal(t, dual.Long.BearingVolatility, legacy.BearingVolatility)
	assert.Equal(t, dual.IsStopEvent, legacy.IsStopEvent)
	assert.Equal(t, dual.StopDurationSec, legacy.StopDurationSec)
	require.NotNil(t, legacy.StopDurationSec)
	assert.Equal(t, 20, *legacy.StopDurationSec)
}
