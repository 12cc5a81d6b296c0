package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestScore_Empty(t *testing.T) {
	a := Score(Input{})
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, Low, a.Level)
	assert.Equal(t, "#22c55e", a.Color)
}

func TestScore_Components(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{"jitter half scale", Input{ShortJitter: fp(1.0)}, 12.5},
		{"jitter saturates", Input{ShortJitter: fp(8)}, 25},
		{"long jitter fallback", Input{LongJitter: fp(1.0)}, 12.5},
		{"short preferred over long", Input{ShortJitter: fp(0.4), LongJitter: fp(2.0)}, 5},
		{"volatility", Input{ShortVolatility: fp(45)}, 12.5},
		{"stop", Input{IsStopEvent: true, StopDurationSec: ip(90)}, 5},
		{"stop ignored when not stopped", Input{StopDurationSec: ip(90)}, 0},
		{"surge", Input{BusynessDelta: fp(20)}, 15},
		{"drop", Input{BusynessDelta: fp(-20)}, 10},
		{"crowd", Input{BusynessPct: fp(85)}, 5},
		{"crowd at threshold", Input{BusynessPct: fp(70)}, 0},
		{"spike multiplier", Input{ShortJitter: fp(1.0), JitterRatio: fp(1.6)}, 15},
		{"no spike at ratio 1.5", Input{ShortJitter: fp(1.0), JitterRatio: fp(1.5)}, 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.in).Score, 1e-9)
		})
	}
}

func TestScore_ClampAndLevels(t *testing.T) {
	maxed := Score(Input{
		ShortJitter:     fp(10),
		ShortVolatility: fp(180),
		IsStopEvent:     true,
		StopDurationSec: ip(600),
		BusynessDelta:   fp(80),
		BusynessPct:     fp(100),
		JitterRatio:     fp(3),
	})
	assert.Equal(t, 100.0, maxed.Score)
	assert.Equal(t, High, maxed.Level)
	assert.Equal(t, "#ef4444", maxed.Color)

	assert.Equal(t, High, DefaultWeights.LevelFor(70))
	assert.Equal(t, Moderate, DefaultWeights.LevelFor(69.9))
	assert.Equal(t, Moderate, DefaultWeights.LevelFor(40))
	assert.Equal(t, Low, DefaultWeights.LevelFor(39.9))
	assert.Equal(t, "#eab308", Moderate.Color())
}

func randomInput(rng *rand.Rand) Input {
	in := Input{IsStopEvent: rng.Intn(2) == 0}
	maybe := func(scale float64) *float64 {
		if rng.Intn(4) == 0 {
			return nil
		}
		return fp(rng.Float64() * scale)
	}
	in.ShortJitter = maybe(4)
	in.LongJitter = maybe(4)
	in.ShortVolatility = maybe(180)
	in.LongVolatility = maybe(180)
	in.JitterRatio = maybe(3)
	in.BusynessPct = maybe(100)
	if rng.Intn(4) != 0 {
		in.StopDurationSec = ip(rng.Intn(400))
	}
	if rng.Intn(4) != 0 {
		in.BusynessDelta = fp(rng.Float64()*120 - 60)
	}
	return in
}

func TestScore_MonotoneAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 3000; i++ {
		base := randomInput(rng)
		s0 := Score(base).Score
		require.GreaterOrEqual(t, s0, 0.0)
		require.LessOrEqual(t, s0, 100.0)

		bump := rng.Float64() * 3

		up := base
		if up.ShortJitter != nil {
			up.ShortJitter = fp(*up.ShortJitter + bump)
		} else if up.LongJitter != nil {
			up.LongJitter = fp(*up.LongJitter + bump)
		} else {
			up.ShortJitter = fp(bump)
		}
		require.GreaterOrEqual(t, Score(up).Score, s0, "jitter")

		up = base
		if up.ShortVolatility != nil {
			up.ShortVolatility = fp(*up.ShortVolatility + bump*30)
		} else if up.LongVolatility != nil {
			up.LongVolatility = fp(*up.LongVolatility + bump*30)
		} else {
			up.ShortVolatility = fp(bump * 30)
		}
		require.GreaterOrEqual(t, Score(up).Score, s0, "volatility")

		up = base
		if up.StopDurationSec != nil {
			up.StopDurationSec = ip(*up.StopDurationSec + int(bump*60))
		} else {
			up.StopDurationSec = ip(int(bump * 60))
		}
		require.GreaterOrEqual(t, Score(up).Score, s0, "stop duration")

		up = base
		if up.BusynessDelta != nil {
			d := *up.BusynessDelta
			if d >= 0 {
				up.BusynessDelta = fp(d + bump*10)
			} else {
				up.BusynessDelta = fp(d - bump*10)
			}
			require.GreaterOrEqual(t, Score(up).Score, s0, "busyness delta")
		}
	}
}

func TestScore_Reproducible(t *testing.T) {
	in := Input{ShortJitter: fp(1.3), LongVolatility: fp(60), BusynessDelta: fp(-12), JitterRatio: fp(2)}
	assert.Equal(t, Score(in), Score(in))
}
