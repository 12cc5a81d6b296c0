package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sp(s string) *string { return &s }

func TestTranslateActivity(t *testing.T) {
	tests := []struct {
		name     string
		obs      Observation
		label    string
		movement Movement
	}{
		{"long stop", Observation{IsStopEvent: true, StopDurationSec: ip(61)}, "Resting", Frozen},
		{"short stop", Observation{IsStopEvent: true, StopDurationSec: ip(60)}, "Paused", Frozen},
		{"erratic", Observation{VolatilityRatio: fp(2.5), JitterRatio: fp(0.1)}, "Exploring actively", Erratic},
		{"no ratio", Observation{}, "Walking", Steady},
		{"calm", Observation{JitterRatio: fp(0.5)}, "Calm walk", Steady},
		{"active", Observation{JitterRatio: fp(1.0)}, "Active", Active},
		{"playing", Observation{JitterRatio: fp(1.5)}, "Playing", Playing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, movement := TranslateActivity(tt.obs)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.movement, movement)
		})
	}
}

func TestTranslateCrowding(t *testing.T) {
	assert.Equal(t, ModerateCrowd, TranslateCrowding(nil))
	assert.Equal(t, Quiet, TranslateCrowding(fp(29.9)))
	assert.Equal(t, ModerateCrowd, TranslateCrowding(fp(30)))
	assert.Equal(t, Busy, TranslateCrowding(fp(60)))
}

func TestExplanations(t *testing.T) {
	assert.Equal(t, []string{"Pepper is on a walk."}, Explanations(Observation{}, "Pepper"))

	got := Explanations(Observation{
		IsStopEvent:     true,
		StopDurationSec: ip(120),
		BusynessPct:     fp(75),
	}, "Pepper")
	assert.Equal(t, []string{
		"Pepper has been still for 120 seconds.",
		"Busy area - many people nearby.",
	}, got)

	capped := Explanations(Observation{
		JitterRatio:      fp(2),
		VolatilityRatio:  fp(3),
		BusynessPct:      fp(10),
		BusynessDelta:    fp(-25),
		WeatherCondition: sp("Thunderstorm"),
	}, "Rex")
	assert.Equal(t, []string{
		"Rex is very active right now.",
		"Rex is changing direction frequently.",
		"Few people or dogs nearby.",
	}, capped)

	weather := Explanations(Observation{WeatherCondition: sp("light rain")}, "Pepper")
	assert.Equal(t, []string{"It's raining in the area."}, weather)
}
