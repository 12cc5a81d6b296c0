package models

// WalkStatistics summarizes a subject's pings over a time range.
// It never carries coordinates.
type WalkStatistics struct {
	SubjectID string `json:"subject_id"`
	StartTime int64  `json:"start_time"` // unix seconds, 0 = unbounded
	EndTime   int64  `json:"end_time"`   // unix seconds, 0 = unbounded

	TotalPings    int `json:"total_pings"`
	HomeZonePings int `json:"home_zone_pings"`
	OutsidePings  int `json:"outside_pings"`
	EnrichedPings int `json:"enriched_pings"`
	StopEvents    int `json:"stop_events"`

	FirstPing *string `json:"first_ping"` // RFC3339
	LastPing  *string `json:"last_ping"`

	AvgSpeedMS     *float64 `json:"avg_speed_ms"`
	MaxSpeedMS     *float64 `json:"max_speed_ms"`
	AvgBusynessPct *float64 `json:"avg_busyness_pct"`

	ChokePoints []ChokePointEncounter `json:"choke_points"`
	GeneratedAt string                `json:"generated_at"`
}

// ChokePointEncounter counts pings that fell inside one choke point's radius.
type ChokePointEncounter struct {
	ChokePointID int64   `json:"choke_point_id" db:"choke_point_id"`
	Name         string  `json:"name" db:"name"`
	PingCount    int     `json:"ping_count" db:"ping_count"`
	MinDistanceM float64 `json:"min_distance_m" db:"min_distance_m"`
}

// HourlyActivity is the outside-ping distribution for one UTC hour.
type HourlyActivity struct {
	Hour       int      `json:"hour"`
	PingCount  int      `json:"ping_count"`
	AvgSpeedMS *float64 `json:"avg_speed_ms"`
}
