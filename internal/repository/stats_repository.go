package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
)

// StatsRepository handles database operations for walk statistics
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// TimeRange bounds a statistics query. Zero values are unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// where builds the raw_pings filter for subjectID within tr.
func (tr TimeRange) where(alias, subjectID string) (string, []interface{}) {
	conditions := []string{alias + "subject_id = ?"}
	args := []interface{}{subjectID}

	if !tr.Start.IsZero() {
		conditions = append(conditions, alias+"ts_ms >= ?")
		args = append(args, tr.Start.UnixMilli())
	}
	if !tr.End.IsZero() {
		conditions = append(conditions, alias+"ts_ms <= ?")
		args = append(args, tr.End.UnixMilli())
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// GetWalkStatistics aggregates ping, enrichment and choke point counts.
// Time fields and GeneratedAt are left for the caller.
func (r *StatsRepository) GetWalkStatistics(ctx context.Context, subjectID string, tr TimeRange) (*models.WalkStatistics, error) {
	stats := &models.WalkStatistics{SubjectID: subjectID}

	// Raw pings. Home zone rows have NULL speed, so the averages cover outside pings only.
	whereClause, args := tr.where("", subjectID)
	query := `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_home_zone = ? THEN 1 ELSE 0 END), 0),
			MIN(ts_ms), MAX(ts_ms), AVG(speed), MAX(speed)
		FROM raw_pings` + whereClause

	var first, last sql.NullInt64
	var avgSpeed, maxSpeed sql.NullFloat64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), append([]interface{}{true}, args...)...).
		Scan(&stats.TotalPings, &stats.HomeZonePings, &first, &last, &avgSpeed, &maxSpeed)
	if err != nil {
		return nil, fmt.Errorf("failed to count pings: %w", err)
	}
	stats.OutsidePings = stats.TotalPings - stats.HomeZonePings
	stats.FirstPing = formatMillis(first)
	stats.LastPing = formatMillis(last)
	stats.AvgSpeedMS = nullFloat(avgSpeed)
	stats.MaxSpeedMS = nullFloat(maxSpeed)

	// Enrichment
	whereClause, args = tr.where("p.", subjectID)
	query = `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN e.is_stop_event = ? THEN 1 ELSE 0 END), 0),
			AVG(e.busyness_pct)
		FROM enriched_pings e JOIN raw_pings p ON p.id = e.ping_id` + whereClause

	var avgBusyness sql.NullFloat64
	err = r.db.QueryRowContext(ctx, r.db.Rebind(query), append([]interface{}{true}, args...)...).
		Scan(&stats.EnrichedPings, &stats.StopEvents, &avgBusyness)
	if err != nil {
		return nil, fmt.Errorf("failed to count enriched pings: %w", err)
	}
	stats.AvgBusynessPct = nullFloat(avgBusyness)

	encounters, err := r.getChokePointEncounters(ctx, subjectID, tr)
	if err != nil {
		return nil, err
	}
	stats.ChokePoints = encounters

	return stats, nil
}

// getChokePointEncounters ranks choke points by pings inside their radius.
func (r *StatsRepository) getChokePointEncounters(ctx context.Context, subjectID string, tr TimeRange) ([]models.ChokePointEncounter, error) {
	whereClause, args := tr.where("p.", subjectID)
	query := `SELECT c.id, c.name, COUNT(*), MIN(x.distance_m)
		FROM ping_choke_proximity x
		JOIN raw_pings p ON p.id = x.ping_id
		JOIN choke_points c ON c.id = x.choke_point_id` + whereClause + `
			AND x.distance_m <= c.radius_m
		GROUP BY c.id, c.name
		ORDER BY COUNT(*) DESC, c.id`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choke point encounters: %w", err)
	}
	defer rows.Close()

	encounters := []models.ChokePointEncounter{}
	for rows.Next() {
		var e models.ChokePointEncounter
		if err := rows.Scan(&e.ChokePointID, &e.Name, &e.PingCount, &e.MinDistanceM); err != nil {
			return nil, fmt.Errorf("failed to scan choke point encounter: %w", err)
		}
		encounters = append(encounters, e)
	}
	return encounters, rows.Err()
}

// GetHourlyActivity returns outside-ping counts per UTC hour, only for
// hours that have pings, ordered by hour.
func (r *StatsRepository) GetHourlyActivity(ctx context.Context, subjectID string, tr TimeRange) ([]models.HourlyActivity, error) {
	whereClause, args := tr.where("", subjectID)
	query := `SELECT (ts_ms / 3600000) % 24 AS hour, COUNT(*), AVG(speed)
		FROM raw_pings` + whereClause + ` AND is_home_zone = ?
		GROUP BY hour
		ORDER BY hour`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), append(args, false)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly activity: %w", err)
	}
	defer rows.Close()

	hours := []models.HourlyActivity{}
	for rows.Next() {
		var h models.HourlyActivity
		var avgSpeed sql.NullFloat64
		if err := rows.Scan(&h.Hour, &h.PingCount, &avgSpeed); err != nil {
			return nil, fmt.Errorf("failed to scan hourly activity: %w", err)
		}
		h.AvgSpeedMS = nullFloat(avgSpeed)
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func formatMillis(v sql.NullInt64) *string {
	if !v.Valid {
		return nil
	}
	s := time.UnixMilli(v.Int64).UTC().Format(time.RFC3339)
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
