package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/analysis/window"
	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/privacy"
)

// PingRepository handles raw and enriched ping storage.
type PingRepository struct {
	db *database.DB
}

// NewPingRepository creates a new ping repository
func NewPingRepository(db *database.DB) *PingRepository {
	return &PingRepository{db: db}
}

// NewRawPing builds the stored form of a classified ping. A HomeZone
// classification yields a row with every location field nil.
func NewRawPing(subjectID string, ts time.Time, c privacy.Classification) models.RawPing {
	p := models.RawPing{SubjectID: subjectID, Timestamp: ts.UTC()}

	switch v := c.(type) {
	case privacy.HomeZone:
		p.IsHomeZone = true
	case privacy.Outside:
		lat, lon := v.Fix.Lat, v.Fix.Lon
		p.Lat, p.Lon = &lat, &lon
		p.Speed, p.Bearing, p.Accuracy = v.Fix.Speed, v.Fix.Bearing, v.Fix.Accuracy
	}
	return p
}

// InsertRaw stores p and sets its ID.
func (r *PingRepository) InsertRaw(ctx context.Context, p *models.RawPing) error {
	if p.IsHomeZone && (p.Lat != nil || p.Lon != nil || p.Speed != nil || p.Bearing != nil || p.Accuracy != nil) {
		return errors.New("failed to insert ping: home zone ping carries location fields")
	}

	query := r.db.Rebind(`INSERT INTO raw_pings (subject_id, ts_ms, lat, lon, speed, bearing, accuracy, is_home_zone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		p.SubjectID, p.Timestamp.UnixMilli(), p.Lat, p.Lon, p.Speed, p.Bearing, p.Accuracy, p.IsHomeZone,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert ping: %w", err)
	}
	return nil
}

// RecentSamples returns non-home samples for subject with
// before-lookback <= ts < before, newest first.
func (r *PingRepository) RecentSamples(ctx context.Context, subjectID string, before time.Time, lookback time.Duration) ([]window.Sample, error) {
	query := r.db.Rebind(`SELECT ts_ms, speed, bearing FROM raw_pings
		WHERE subject_id = ? AND is_home_zone = ? AND ts_ms >= ? AND ts_ms < ?
		ORDER BY ts_ms DESC`)

	rows, err := r.db.QueryContext(ctx, query, subjectID, false, before.Add(-lookback).UnixMilli(), before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query recent pings: %w", err)
	}
	defer rows.Close()

	var samples []window.Sample
	for rows.Next() {
		var s window.Sample
		var tsMs int64
		if err := rows.Scan(&tsMs, &s.Speed, &s.Bearing); err != nil {
			return nil, fmt.Errorf("failed to scan recent ping: %w", err)
		}
		s.Timestamp = time.UnixMilli(tsMs).UTC()
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

const enrichedColumns = `ping_id, temp_c, feels_like_c, humidity_pct, rain_1h_mm, wind_speed_ms, wind_gust_ms,
	visibility_m, weather_condition, weather_condition_id, is_daylight,
	busyness_pct, usual_busyness_pct, busyness_delta, busyness_trend, location_type,
	busyness_confidence, busyness_is_mock,
	velocity_jitter_30s, bearing_volatility_30s, ping_count_30s,
	velocity_jitter_5m, bearing_volatility_5m, ping_count_5m,
	jitter_ratio, volatility_ratio, is_stop_event, stop_duration_sec`

func enrichedFields(e *models.EnrichedPing) []any {
	return []any{
		&e.PingID, &e.TempC, &e.FeelsLikeC, &e.HumidityPct, &e.Rain1hMM, &e.WindSpeedMS, &e.WindGustMS,
		&e.VisibilityM, &e.WeatherCondition, &e.WeatherConditionID, &e.IsDaylight,
		&e.BusynessPct, &e.UsualBusynessPct, &e.BusynessDelta, &e.BusynessTrend, &e.LocationType,
		&e.BusynessConfidence, &e.BusynessIsMock,
		&e.VelocityJitter30s, &e.BearingVolatility30s, &e.PingCount30s,
		&e.VelocityJitter5m, &e.BearingVolatility5m, &e.PingCount5m,
		&e.JitterRatio, &e.VolatilityRatio, &e.IsStopEvent, &e.StopDurationSec,
	}
}

// SaveEnrichment stores the enrichment row and its proximities atomically.
func (r *PingRepository) SaveEnrichment(ctx context.Context, e *models.EnrichedPing, proximities []models.Proximity) error {
	insertEnriched := r.db.Rebind(`INSERT INTO enriched_pings (` + enrichedColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertProximity := r.db.Rebind(`INSERT INTO ping_choke_proximity (ping_id, choke_point_id, distance_m) VALUES (?, ?, ?)`)

	args := make([]any, 0, 28)
	for _, f := range enrichedFields(e) {
		args = append(args, derefField(f))
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertEnriched, args...); err != nil {
			return fmt.Errorf("failed to insert enrichment: %w", err)
		}

		if len(proximities) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, insertProximity)
		if err != nil {
			return fmt.Errorf("failed to prepare proximity insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range proximities {
			if _, err := stmt.ExecContext(ctx, p.PingID, p.ChokePointID, p.DistanceM); err != nil {
				return fmt.Errorf("failed to insert proximity: %w", err)
			}
		}
		return nil
	})
}

// derefField turns a scan destination back into a bind argument.
func derefField(f any) any {
	switch v := f.(type) {
	case *int64:
		return *v
	case *int:
		return *v
	case *bool:
		return *v
	case **float64:
		return *v
	case **string:
		return *v
	case **int:
		return *v
	case **bool:
		return *v
	default:
		panic(fmt.Sprintf("unsupported enrichment field %T", f))
	}
}

// LatestEnriched returns the newest enriched ping for subject joined with its
// raw ping, or ErrNotFound.
func (r *PingRepository) LatestEnriched(ctx context.Context, subjectID string) (*models.EnrichedPing, *models.RawPing, error) {
	query := r.db.Rebind(`SELECT ` + prefixColumns("e.", enrichedColumns) + `,
			p.id, p.subject_id, p.ts_ms, p.lat, p.lon, p.speed, p.bearing, p.accuracy, p.is_home_zone
		FROM enriched_pings e
		JOIN raw_pings p ON p.id = e.ping_id
		WHERE p.subject_id = ?
		ORDER BY p.ts_ms DESC, p.id DESC
		LIMIT 1`)

	var e models.EnrichedPing
	var p models.RawPing
	var tsMs int64
	dest := append(enrichedFields(&e),
		&p.ID, &p.SubjectID, &tsMs, &p.Lat, &p.Lon, &p.Speed, &p.Bearing, &p.Accuracy, &p.IsHomeZone)

	err := r.db.QueryRowContext(ctx, query, subjectID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest enrichment: %w", err)
	}

	p.Timestamp = time.UnixMilli(tsMs).UTC()
	return &e, &p, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

// ProximitiesFor lists the stored proximities of a ping, nearest first.
func (r *PingRepository) ProximitiesFor(ctx context.Context, pingID int64) ([]models.Proximity, error) {
	query := r.db.Rebind(`SELECT ping_id, choke_point_id, distance_m FROM ping_choke_proximity
		WHERE ping_id = ? ORDER BY distance_m`)

	rows, err := r.db.QueryContext(ctx, query, pingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proximities: %w", err)
	}
	defer rows.Close()

	var out []models.Proximity
	for rows.Next() {
		var p models.Proximity
		if err := rows.Scan(&p.PingID, &p.ChokePointID, &p.DistanceM); err != nil {
			return nil, fmt.Errorf("failed to scan proximity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
