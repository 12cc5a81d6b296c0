package service

import (
	"context"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
)

// ChokePointService handles business logic for choke points
type ChokePointService struct {
	repo *repository.ChokePointRepository
}

// NewChokePointService creates a new choke point service
func NewChokePointService(repo *repository.ChokePointRepository) *ChokePointService {
	return &ChokePointService{repo: repo}
}

// List returns all choke points, optionally filtered by category.
func (s *ChokePointService) List(ctx context.Context, category string) ([]models.ChokePoint, error) {
	return s.repo.List(ctx, category)
}

// Get retrieves a single choke point by ID
func (s *ChokePointService) Get(ctx context.Context, id int64) (*models.ChokePoint, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a choke point with defaults applied.
func (s *ChokePointService) Create(ctx context.Context, req models.ChokePointRequest) (*models.ChokePoint, error) {
	cp := req.ToChokePoint()
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Delete removes a choke point
func (s *ChokePointService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
