// Package busyness estimates crowd levels with a deterministic synthetic model.
//
// The model stands in for a live crowd source: identical (lat, lon, time)
// inputs always produce identical output.
package busyness

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

// LocationType classifies an area for the base busyness curve.
type LocationType string

const (
	Commercial  LocationType = "commercial"
	Residential LocationType = "residential"
	Transit     LocationType = "transit"
	Recreation  LocationType = "recreation"
	Mixed       LocationType = "mixed"
	Unknown     LocationType = "unknown"
)

// seed % len(locationTypes) picks the type, so the order is part of the model.
var locationTypes = []LocationType{Commercial, Residential, Transit, Recreation, Mixed, Unknown}

// Trend compares the current estimate against the previous hour.
type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

const (
	poiOverrideRadiusMeters = 200.0
	trendDeadZone           = 5.0
	knownConfidence         = 0.7
	unknownConfidence       = 0.4
	previousHourMinute      = 30
)

// Data is one busyness estimate.
type Data struct {
	BusynessPct      float64      `json:"busyness_pct"`
	UsualBusynessPct float64      `json:"usual_busyness_pct"`
	BusynessDelta    float64      `json:"busyness_delta"`
	Trend            Trend        `json:"trend"`
	LocationType     LocationType `json:"location_type"`
	Confidence       float64      `json:"confidence"`
	IsMock           bool         `json:"is_mock"`
}

// POI pins a known location type to a point. Pings within 200 m of a POI use
// its type instead of the seeded one.
type POI struct {
	Name string
	Lat  float64
	Lon  float64
	Type LocationType
}

// Model generates estimates. The zero value has no POIs.
type Model struct {
	POIs []POI
}

// Generate runs the model with no POIs.
func Generate(lat, lon float64, ts time.Time) Data {
	return Model{}.Generate(lat, lon, ts)
}

// Generate estimates busyness at a point and instant. Time is evaluated in UTC.
func (m Model) Generate(lat, lon float64, ts time.Time) Data {
	ts = ts.UTC()
	hour, minute := ts.Hour(), ts.Minute()
	weekend := isWeekend(ts.Weekday())

	seed := locationSeed(lat, lon)
	locType := m.classify(lat, lon, seed)

	usual := basePattern(hour, weekend, locType)
	current := addNoise(usual, seed, minute)

	prevUsual := basePattern((hour+23)%24, weekend, locType)
	prevCurrent := addNoise(prevUsual, seed, previousHourMinute)

	confidence := knownConfidence
	if locType == Unknown {
		confidence = unknownConfidence
	}

	return Data{
		BusynessPct:      stats.Round(current, 1),
		UsualBusynessPct: stats.Round(usual, 1),
		BusynessDelta:    stats.Round(current-usual, 1),
		Trend:            trendOf(current, prevCurrent),
		LocationType:     locType,
		Confidence:       confidence,
		IsMock:           true,
	}
}

// locationSeed hashes the coordinates rounded to 4 decimals into a 32-bit seed.
func locationSeed(lat, lon float64) uint32 {
	sum := md5.Sum([]byte(fmt.Sprintf("%.4f,%.4f", lat, lon)))
	seed, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 32)
	return uint32(seed)
}

func (m Model) classify(lat, lon float64, seed uint32) LocationType {
	for _, poi := range m.POIs {
		if spatial.HaversineDistance(lat, lon, poi.Lat, poi.Lon) < poiOverrideRadiusMeters {
			return poi.Type
		}
	}
	return locationTypes[seed%uint32(len(locationTypes))]
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// basePattern is the typical busyness for an hour, day class and location type.
func basePattern(hour int, weekend bool, t LocationType) float64 {
	var base float64
	switch t {
	case Commercial:
		switch {
		case hour >= 11 && hour <= 14:
			base = 75
		case hour >= 17 && hour <= 20:
			base = 85
		case hour >= 9 && hour <= 21:
			base = 50
		default:
			base = 15
		}
	case Transit:
		switch {
		case hour >= 7 && hour <= 9:
			base = 90
		case hour >= 17 && hour <= 19:
			base = 85
		case hour >= 6 && hour <= 22:
			base = 40
		default:
			base = 10
		}
	case Recreation:
		switch {
		case weekend && hour >= 10 && hour <= 18:
			base = 70
		case !weekend && hour >= 16 && hour <= 20:
			base = 50
		default:
			base = 20
		}
	case Residential:
		switch {
		case hour >= 18 && hour <= 22:
			base = 60
		case hour >= 7 && hour <= 9:
			base = 40
		default:
			base = 30
		}
	default:
		base = 40
		if hour >= 10 && hour <= 20 {
			base += 10
		}
	}

	if weekend {
		if t == Commercial {
			base *= 0.7
		} else {
			base *= 1.2
		}
	}
	return stats.Clamp(base, 0, 100)
}

// addNoise perturbs base with two seeded sine waves (15 and 7 minute periods)
// and a fixed per-location offset.
func addNoise(base float64, seed uint32, minute int) float64 {
	m := float64(minute)

	phase1 := float64(seed%100) / 100 * 2 * math.Pi
	wave1 := math.Sin(m/15*2*math.Pi+phase1) * 8

	phase2 := float64((seed>>8)%100) / 100 * 2 * math.Pi
	wave2 := math.Sin(m/7*2*math.Pi+phase2) * 4

	offset := float64(int(seed%20) - 10)

	return stats.Clamp(base+wave1+wave2+offset, 0, 100)
}

func trendOf(current, previous float64) Trend {
	delta := current - previous
	switch {
	case delta > trendDeadZone:
		return Increasing
	case delta < -trendDeadZone:
		return Decreasing
	default:
		return Stable
	}
}
