package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
)

// ChokePointRepository handles database operations for choke points
type ChokePointRepository struct {
	db *database.DB
}

// NewChokePointRepository creates a new choke point repository
func NewChokePointRepository(db *database.DB) *ChokePointRepository {
	return &ChokePointRepository{db: db}
}

// List returns choke points ordered by id, optionally filtered by category.
func (r *ChokePointRepository) List(ctx context.Context, category string) ([]models.ChokePoint, error) {
	query := `SELECT id, name, lat, lon, radius_m, category FROM choke_points`

	var conditions []string
	var args []interface{}
	if category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, category)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choke points: %w", err)
	}
	defer rows.Close()

	points := []models.ChokePoint{}
	for rows.Next() {
		var cp models.ChokePoint
		if err := rows.Scan(&cp.ID, &cp.Name, &cp.Lat, &cp.Lon, &cp.RadiusM, &cp.Category); err != nil {
			return nil, fmt.Errorf("failed to scan choke point: %w", err)
		}
		points = append(points, cp)
	}
	return points, rows.Err()
}

// Get returns one choke point or ErrNotFound.
func (r *ChokePointRepository) Get(ctx context.Context, id int64) (*models.ChokePoint, error) {
	query := r.db.Rebind(`SELECT id, name, lat, lon, radius_m, category FROM choke_points WHERE id = ?`)

	var cp models.ChokePoint
	err := r.db.QueryRowContext(ctx, query, id).Scan(&cp.ID, &cp.Name, &cp.Lat, &cp.Lon, &cp.RadiusM, &cp.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get choke point: %w", err)
	}
	return &cp, nil
}

// Create inserts cp and sets its ID.
func (r *ChokePointRepository) Create(ctx context.Context, cp *models.ChokePoint) error {
	query := r.db.Rebind(`INSERT INTO choke_points (name, lat, lon, radius_m, category)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)

	if err := r.db.QueryRowContext(ctx, query, cp.Name, cp.Lat, cp.Lon, cp.RadiusM, cp.Category).Scan(&cp.ID); err != nil {
		return fmt.Errorf("failed to create choke point: %w", err)
	}
	return nil
}

// Delete removes a choke point and, by cascade, its proximity rows.
func (r *ChokePointRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM choke_points WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete choke point: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete choke point: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
