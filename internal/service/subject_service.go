package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
)

// ErrInvalidHomeZone is returned when only one home coordinate is given.
var ErrInvalidHomeZone = errors.New("home_lat and home_lon must be set together")

// SubjectService handles business logic for subjects
type SubjectService struct {
	repo *repository.SubjectRepository
}

// NewSubjectService creates a new subject service
func NewSubjectService(repo *repository.SubjectRepository) *SubjectService {
	return &SubjectService{repo: repo}
}

// Create registers a subject. A missing name defaults to the id.
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	if (req.HomeLat == nil) != (req.HomeLon == nil) {
		return nil, ErrInvalidHomeZone
	}

	subject := &models.Subject{ID: req.ID, Name: req.Name, HomeLat: req.HomeLat, HomeLon: req.HomeLon}
	if subject.Name == "" {
		subject.Name = subject.ID
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// Get retrieves a subject by id
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	return s.repo.Get(ctx, id)
}

// SetHomeZone sets the home point of an existing subject.
func (s *SubjectService) SetHomeZone(ctx context.Context, id string, req models.HomeZoneRequest) (*models.Subject, error) {
	return s.repo.SetHomeZone(ctx, id, req.HomeLat, req.HomeLon)
}

// ClearHomeZone removes the home point of an existing subject.
func (s *SubjectService) ClearHomeZone(ctx context.Context, id string) (*models.Subject, error) {
	return s.repo.SetHomeZone(ctx, id, nil, nil)
}

// DefaultSubject describes the subject provisioned at startup.
type DefaultSubject struct {
	ID      string
	Name    string
	HomeLat *float64
	HomeLon *float64
}

// EnsureDefault creates the configured subject if it does not exist yet.
// An existing subject is left untouched.
func (s *SubjectService) EnsureDefault(ctx context.Context, def DefaultSubject, logger *slog.Logger) error {
	if def.ID == "" {
		return nil
	}

	_, err := s.repo.Get(ctx, def.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	req := models.CreateSubjectRequest{ID: def.ID, Name: def.Name}
	if def.HomeLat != nil && def.HomeLon != nil {
		req.HomeLat, req.HomeLon = def.HomeLat, def.HomeLon
	}
	subject, err := s.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create default subject: %w", err)
	}

	if logger != nil {
		logger.Info("default subject created", "subject_id", subject.ID, "has_home_zone", subject.HasHomeZone())
	}
	return nil
}
