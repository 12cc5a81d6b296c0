package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/risk"
	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

// Freshness thresholds in minutes.
const (
	StaleAfterMinutes        = 2.0
	DisconnectedAfterMinutes = 10.0

	activeWalkMinutes = 5
	recentWalkMinutes = 30
)

// LatestEnrichedReader loads the newest enriched ping of a subject.
type LatestEnrichedReader interface {
	LatestEnriched(ctx context.Context, subjectID string) (*models.EnrichedPing, *models.RawPing, error)
}

// DashboardService builds the read-side views over stored enrichment.
type DashboardService struct {
	pings   LatestEnrichedReader
	weights risk.Weights
	petName string
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service. Zero weights use
// risk.DefaultWeights and an empty petName falls back to the subject id.
func NewDashboardService(pings LatestEnrichedReader, weights risk.Weights, petName string, now func() time.Time) *DashboardService {
	if weights == (risk.Weights{}) {
		weights = risk.DefaultWeights
	}
	if now == nil {
		now = time.Now
	}
	return &DashboardService{pings: pings, weights: weights, petName: petName, now: now}
}

func (s *DashboardService) nameFor(subjectID string) string {
	if s.petName != "" {
		return s.petName
	}
	return subjectID
}

// Dashboard returns the family dashboard for subjectID.
func (s *DashboardService) Dashboard(ctx context.Context, subjectID string) (*models.DashboardResponse, error) {
	pet := s.nameFor(subjectID)

	enriched, raw, err := s.pings.LatestEnriched(ctx, subjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.DashboardResponse{
			Status:       models.StatusNoData,
			Explanations: []string{fmt.Sprintf("No walk data available for %s yet.", pet)},
			PetName:      pet,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	minutesAgo := s.now().Sub(raw.Timestamp).Minutes()
	status := ConnectionStatus(minutesAgo)
	assessment := s.weights.Score(enriched.RiskInput())
	obs := enriched.Observation()
	label, movement := risk.TranslateActivity(obs)

	return &models.DashboardResponse{
		Status: status,
		Risk:   &assessment,
		Freshness: &models.FreshnessInfo{
			MinutesAgo: stats.Round(minutesAgo, 1),
			Display:    FormatFreshness(minutesAgo),
			IsStale:    minutesAgo > StaleAfterMinutes,
		},
		Activity: &models.ActivityInfo{
			Label:        label,
			Movement:     movement,
			IsStopped:    enriched.IsStopEvent,
			StopDuration: enriched.StopDurationSec,
		},
		Environment: &models.EnvironmentInfo{
			Crowding:    risk.TranslateCrowding(enriched.BusynessPct),
			Weather:     enriched.WeatherCondition,
			BusynessPct: enriched.BusynessPct,
		},
		Explanations: risk.Explanations(obs, pet),
		Location:     locationFor(raw, status),
		PetName:      pet,
	}, nil
}

// Status returns the compact walk status and risk for subjectID.
func (s *DashboardService) Status(ctx context.Context, subjectID string) (*models.SubjectStatus, error) {
	enriched, raw, err := s.pings.LatestEnriched(ctx, subjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.SubjectStatus{SubjectID: subjectID, Status: models.StatusNoData}, nil
	}
	if err != nil {
		return nil, err
	}

	minutes := int(s.now().Sub(raw.Timestamp).Minutes())
	walk := "inactive"
	switch {
	case minutes < activeWalkMinutes:
		walk = "active"
	case minutes < recentWalkMinutes:
		walk = "recent"
	}

	assessment := s.weights.Score(enriched.RiskInput())
	last := raw.Timestamp.Format(time.RFC3339)
	return &models.SubjectStatus{
		SubjectID:  subjectID,
		Status:     walk,
		Risk:       &assessment,
		LastPing:   &last,
		MinutesAgo: &minutes,
		Features:   enriched,
	}, nil
}

// ConnectionStatus maps data age to connected, stale or disconnected.
func ConnectionStatus(minutesAgo float64) string {
	switch {
	case minutesAgo > DisconnectedAfterMinutes:
		return models.StatusDisconnected
	case minutesAgo > StaleAfterMinutes:
		return models.StatusStale
	default:
		return models.StatusConnected
	}
}

// FormatFreshness renders data age for people.
func FormatFreshness(minutesAgo float64) string {
	switch {
	case minutesAgo < 1:
		seconds := int(minutesAgo * 60)
		if seconds < 5 {
			return "Just now"
		}
		return fmt.Sprintf("%d seconds ago", seconds)
	case minutesAgo < 60:
		return plural(int(minutesAgo), "minute")
	default:
		return plural(int(minutesAgo/60), "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}

// MapsURL links to a point on Google Maps.
func MapsURL(lat, lon float64) string {
	return "https://maps.google.com/?q=" +
		strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// locationFor exposes coordinates only for outside pings that are not
// disconnected. Home zone pings have none to expose.
func locationFor(raw *models.RawPing, status string) *models.LocationInfo {
	if raw.Lat == nil || raw.Lon == nil || status == models.StatusDisconnected {
		return &models.LocationInfo{IsAvailable: false}
	}

	url := MapsURL(*raw.Lat, *raw.Lon)
	return &models.LocationInfo{
		Lat:         raw.Lat,
		Lon:         raw.Lon,
		MapsURL:     &url,
		IsAvailable: true,
	}
}
