package risk

import (
	"fmt"
	"math"
	"strings"
)

// Movement is the coarse movement class shown on the dashboard.
type Movement string

const (
	Steady  Movement = "steady"
	Active  Movement = "active"
	Playing Movement = "playing"
	Erratic Movement = "erratic"
	Frozen  Movement = "frozen"
)

// Crowding is the coarse crowd class shown on the dashboard.
type Crowding string

const (
	Quiet         Crowding = "quiet"
	ModerateCrowd Crowding = "moderate"
	Busy          Crowding = "busy"
)

const (
	JitterCalmThreshold        = 0.8
	JitterActiveThreshold      = 1.5
	VolatilityErraticThreshold = 2.0
	BusynessQuietThreshold     = 30.0
	BusynessBusyThreshold      = 60.0
	LongStopSeconds            = 60
	NotableDeltaPoints         = 20.0

	maxExplanations = 3
)

// Observation is the subset of an enriched ping the translator reads.
type Observation struct {
	JitterRatio      *float64
	VolatilityRatio  *float64
	IsStopEvent      bool
	StopDurationSec  *int
	BusynessPct      *float64
	BusynessDelta    *float64
	WeatherCondition *string
}

func longStop(sec *int) bool {
	return sec != nil && *sec > LongStopSeconds
}

func above(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

// TranslateActivity labels the current movement.
func TranslateActivity(o Observation) (label string, movement Movement) {
	if o.IsStopEvent {
		if longStop(o.StopDurationSec) {
			return "Resting", Frozen
		}
		return "Paused", Frozen
	}

	if above(o.VolatilityRatio, VolatilityErraticThreshold) {
		return "Exploring actively", Erratic
	}

	switch {
	case o.JitterRatio == nil:
		return "Walking", Steady
	case *o.JitterRatio < JitterCalmThreshold:
		return "Calm walk", Steady
	case *o.JitterRatio < JitterActiveThreshold:
		return "Active", Active
	default:
		return "Playing", Playing
	}
}

// TranslateCrowding buckets busyness. Unknown busyness reads as moderate.
func TranslateCrowding(busynessPct *float64) Crowding {
	switch {
	case busynessPct == nil:
		return ModerateCrowd
	case *busynessPct < BusynessQuietThreshold:
		return Quiet
	case *busynessPct < BusynessBusyThreshold:
		return ModerateCrowd
	default:
		return Busy
	}
}

// Explanations returns one to three sentences describing the observation.
func Explanations(o Observation, petName string) []string {
	var out []string

	switch {
	case o.IsStopEvent && longStop(o.StopDurationSec):
		out = append(out, fmt.Sprintf("%s has been still for %d seconds.", petName, *o.StopDurationSec))
	case o.IsStopEvent:
		out = append(out, petName+" has stopped moving.")
	case o.JitterRatio != nil && *o.JitterRatio < JitterCalmThreshold:
		out = append(out, petName+" is walking steadily with low movement variation.")
	case o.JitterRatio != nil && *o.JitterRatio < JitterActiveThreshold:
		out = append(out, petName+" is moving around normally.")
	case o.JitterRatio != nil:
		out = append(out, petName+" is very active right now.")
	}

	if above(o.VolatilityRatio, VolatilityErraticThreshold) {
		out = append(out, petName+" is changing direction frequently.")
	}

	if o.BusynessPct != nil {
		switch {
		case *o.BusynessPct < BusynessQuietThreshold:
			out = append(out, "Few people or dogs nearby.")
		case *o.BusynessPct > BusynessBusyThreshold:
			out = append(out, "Busy area - many people nearby.")
		default:
			out = append(out, "Moderate foot traffic in the area.")
		}
	}

	if o.BusynessDelta != nil && math.Abs(*o.BusynessDelta) > NotableDeltaPoints {
		if *o.BusynessDelta > 0 {
			out = append(out, "The area is getting more crowded.")
		} else {
			out = append(out, "The area is quieting down.")
		}
	}

	if o.WeatherCondition != nil {
		cond := strings.ToLower(*o.WeatherCondition)
		switch {
		case strings.Contains(cond, "rain"):
			out = append(out, "It's raining in the area.")
		case strings.Contains(cond, "snow"):
			out = append(out, "There's snow in the area.")
		case strings.Contains(cond, "storm"), strings.Contains(cond, "thunder"):
			out = append(out, "Stormy conditions detected.")
		}
	}

	if len(out) == 0 {
		out = append(out, petName+" is on a walk.")
	}
	if len(out) > maxExplanations {
		out = out[:maxExplanations]
	}
	return out
}
