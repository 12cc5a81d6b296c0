package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
)

// SubjectRepository handles database operations for subjects
type SubjectRepository struct {
	db *database.DB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *database.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Get returns the subject or ErrNotFound.
func (r *SubjectRepository) Get(ctx context.Context, id string) (*models.Subject, error) {
	query := r.db.Rebind(`SELECT id, name, home_lat, home_lon, created_at_ms FROM subjects WHERE id = ?`)

	var s models.Subject
	var createdMs int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.HomeLat, &s.HomeLon, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	s.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &s, nil
}

// Create inserts a subject, or returns ErrConflict if the id is taken.
// CreatedAt is set when zero.
func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`INSERT INTO subjects (id, name, home_lat, home_lon, created_at_ms)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.HomeLat, s.HomeLon, s.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

// GetOrCreate returns the subject, creating it with name = id when missing.
// A concurrent creator of the same id is tolerated.
func (r *SubjectRepository) GetOrCreate(ctx context.Context, id string) (*models.Subject, error) {
	s, err := r.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := r.db.Rebind(`INSERT INTO subjects (id, name, created_at_ms) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, id, id, time.Now().UTC().UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return r.Get(ctx, id)
}

// SetHomeZone replaces the home point. Nil coordinates clear it.
func (r *SubjectRepository) SetHomeZone(ctx context.Context, id string, lat, lon *float64) (*models.Subject, error) {
	query := r.db.Rebind(`UPDATE subjects SET home_lat = ?, home_lon = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, lat, lon, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update home zone: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}
