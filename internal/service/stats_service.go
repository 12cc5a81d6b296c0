package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
)

// ErrInvalidTimeRange is returned when a statistics range ends before it starts.
var ErrInvalidTimeRange = errors.New("start time must be before end time")

// StatsService handles business logic for walk statistics
type StatsService struct {
	statsRepo   *repository.StatsRepository
	subjectRepo *repository.SubjectRepository
	now         func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(statsRepo *repository.StatsRepository, subjectRepo *repository.SubjectRepository) *StatsService {
	return &StatsService{
		statsRepo:   statsRepo,
		subjectRepo: subjectRepo,
		now:         time.Now,
	}
}

// timeRange converts unix-second bounds. Negative values are treated as unbounded.
func timeRange(startTime, endTime int64) (repository.TimeRange, error) {
	var tr repository.TimeRange
	if startTime > 0 {
		tr.Start = time.Unix(startTime, 0).UTC()
	}
	if endTime > 0 {
		tr.End = time.Unix(endTime, 0).UTC()
	}
	if !tr.Start.IsZero() && !tr.End.IsZero() && tr.Start.After(tr.End) {
		return tr, ErrInvalidTimeRange
	}
	return tr, nil
}

// GetWalkStatistics summarizes a subject's pings between two unix-second
// bounds. An unknown subject returns repository.ErrNotFound.
func (s *StatsService) GetWalkStatistics(ctx context.Context, subjectID string, startTime, endTime int64) (*models.WalkStatistics, error) {
	tr, err := timeRange(startTime, endTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.subjectRepo.Get(ctx, subjectID); err != nil {
		return nil, err
	}

	stats, err := s.statsRepo.GetWalkStatistics(ctx, subjectID, tr)
	if err != nil {
		return nil, fmt.Errorf("failed to get walk statistics: %w", err)
	}

	stats.StartTime = max(startTime, 0)
	stats.EndTime = max(endTime, 0)
	stats.GeneratedAt = s.now().UTC().Format(time.RFC3339)
	return stats, nil
}

// GetHourlyActivity returns the outside-ping distribution by UTC hour.
func (s *StatsService) GetHourlyActivity(ctx context.Context, subjectID string, startTime, endTime int64) ([]models.HourlyActivity, error) {
	tr, err := timeRange(startTime, endTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.subjectRepo.Get(ctx, subjectID); err != nil {
		return nil, err
	}

	hours, err := s.statsRepo.GetHourlyActivity(ctx, subjectID, tr)
	if err != nil {
		return nil, fmt.Errorf("failed to get hourly activity: %w", err)
	}
	return hours, nil
}
