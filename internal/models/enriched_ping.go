package models

import (
	"github.com/pepsafe/pepsafe-backend-go/internal/analysis/window"
	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/risk"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

// EnrichedPing holds the derived features for one non-home ping. Every
// environmental column is nullable: a missing source leaves its group nil.
type EnrichedPing struct {
	PingID int64 `json:"ping_id" db:"ping_id"`

	// Weather
	TempC              *float64 `json:"temp_c" db:"temp_c"`
	FeelsLikeC         *float64 `json:"feels_like_c" db:"feels_like_c"`
	HumidityPct        *float64 `json:"humidity_pct" db:"humidity_pct"`
	Rain1hMM           *float64 `json:"rain_1h_mm" db:"rain_1h_mm"`
	WindSpeedMS        *float64 `json:"wind_speed_ms" db:"wind_speed_ms"`
	WindGustMS         *float64 `json:"wind_gust_ms" db:"wind_gust_ms"`
	VisibilityM        *float64 `json:"visibility_m" db:"visibility_m"`
	WeatherCondition   *string  `json:"weather_condition" db:"weather_condition"`
	WeatherConditionID *int     `json:"weather_condition_id" db:"weather_condition_id"`
	IsDaylight         *bool    `json:"is_daylight" db:"is_daylight"`

	// Busyness
	BusynessPct        *float64 `json:"busyness_pct" db:"busyness_pct"`
	UsualBusynessPct   *float64 `json:"usual_busyness_pct" db:"usual_busyness_pct"`
	BusynessDelta      *float64 `json:"busyness_delta" db:"busyness_delta"`
	BusynessTrend      *string  `json:"busyness_trend" db:"busyness_trend"`
	LocationType       *string  `json:"location_type" db:"location_type"`
	BusynessConfidence *float64 `json:"busyness_confidence" db:"busyness_confidence"`
	BusynessIsMock     *bool    `json:"busyness_is_mock" db:"busyness_is_mock"`

	// Window features
	VelocityJitter30s    *float64 `json:"velocity_jitter_30s" db:"velocity_jitter_30s"`
	BearingVolatility30s *float64 `json:"bearing_volatility_30s" db:"bearing_volatility_30s"`
	PingCount30s         int      `json:"ping_count_30s" db:"ping_count_30s"`
	VelocityJitter5m     *float64 `json:"velocity_jitter_5m" db:"velocity_jitter_5m"`
	BearingVolatility5m  *float64 `json:"bearing_volatility_5m" db:"bearing_volatility_5m"`
	PingCount5m          int      `json:"ping_count_5m" db:"ping_count_5m"`
	JitterRatio          *float64 `json:"jitter_ratio" db:"jitter_ratio"`
	VolatilityRatio      *float64 `json:"volatility_ratio" db:"volatility_ratio"`
	IsStopEvent          bool     `json:"is_stop_event" db:"is_stop_event"`
	StopDurationSec      *int     `json:"stop_duration_sec" db:"stop_duration_sec"`
}

// NewEnrichedPing flattens features and the environmental snapshot into a row.
func NewEnrichedPing(pingID int64, f window.DualWindowFeatures, w *weather.Data, b *busyness.Data) *EnrichedPing {
	e := &EnrichedPing{
		PingID:               pingID,
		VelocityJitter30s:    f.Short.VelocityJitter,
		BearingVolatility30s: f.Short.BearingVolatility,
		PingCount30s:         f.Short.PingCount,
		VelocityJitter5m:     f.Long.VelocityJitter,
		BearingVolatility5m:  f.Long.BearingVolatility,
		PingCount5m:          f.Long.PingCount,
		JitterRatio:          f.JitterRatio,
		VolatilityRatio:      f.VolatilityRatio,
		IsStopEvent:          f.IsStopEvent,
		StopDurationSec:      f.StopDurationSec,
	}

	if w != nil {
		e.TempC = &w.TempC
		e.FeelsLikeC = &w.FeelsLikeC
		e.HumidityPct = &w.HumidityPct
		e.Rain1hMM = &w.Rain1hMM
		e.WindSpeedMS = &w.WindSpeedMS
		e.WindGustMS = w.WindGustMS
		e.VisibilityM = &w.VisibilityM
		e.WeatherCondition = &w.Condition
		e.WeatherConditionID = &w.ConditionID
		e.IsDaylight = &w.IsDaylight
	}

	if b != nil {
		trend := string(b.Trend)
		locType := string(b.LocationType)
		e.BusynessPct = &b.BusynessPct
		e.UsualBusynessPct = &b.UsualBusynessPct
		e.BusynessDelta = &b.BusynessDelta
		e.BusynessTrend = &trend
		e.LocationType = &locType
		e.BusynessConfidence = &b.Confidence
		e.BusynessIsMock = &b.IsMock
	}

	return e
}

// RiskInput is the scorer's view of the row.
func (e *EnrichedPing) RiskInput() risk.Input {
	return risk.Input{
		ShortJitter:     e.VelocityJitter30s,
		LongJitter:      e.VelocityJitter5m,
		ShortVolatility: e.BearingVolatility30s,
		LongVolatility:  e.BearingVolatility5m,
		JitterRatio:     e.JitterRatio,
		IsStopEvent:     e.IsStopEvent,
		StopDurationSec: e.StopDurationSec,
		BusynessPct:     e.BusynessPct,
		BusynessDelta:   e.BusynessDelta,
	}
}

// Observation is the translator's view of the row.
func (e *EnrichedPing) Observation() risk.Observation {
	return risk.Observation{
		JitterRatio:      e.JitterRatio,
		VolatilityRatio:  e.VolatilityRatio,
		IsStopEvent:      e.IsStopEvent,
		StopDurationSec:  e.StopDurationSec,
		BusynessPct:      e.BusynessPct,
		BusynessDelta:    e.BusynessDelta,
		WeatherCondition: e.WeatherCondition,
	}
}
