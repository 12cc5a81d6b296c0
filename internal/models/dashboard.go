package models

import (
	"github.com/pepsafe/pepsafe-backend-go/internal/risk"
)

// Connection states for the dashboard.
const (
	StatusConnected    = "connected"
	StatusStale        = "stale"
	StatusDisconnected = "disconnected"
	StatusNoData       = "no_data"
)

type FreshnessInfo struct {
	MinutesAgo float64 `json:"minutes_ago"`
	Display    string  `json:"display"`
	IsStale    bool    `json:"is_stale"`
}

type ActivityInfo struct {
	Label        string        `json:"label"`
	Movement     risk.Movement `json:"movement"`
	IsStopped    bool          `json:"is_stopped"`
	StopDuration *int          `json:"stop_duration"`
}

type EnvironmentInfo struct {
	Crowding    risk.Crowding `json:"crowding"`
	Weather     *string       `json:"weather"`
	BusynessPct *float64      `json:"busyness_pct"`
}

// LocationInfo is only populated for outside pings that are not disconnected.
type LocationInfo struct {
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	MapsURL     *string  `json:"maps_url"`
	IsAvailable bool     `json:"is_available"`
}

// DashboardResponse is the family dashboard payload.
type DashboardResponse struct {
	Status       string           `json:"status"`
	Risk         *risk.Assessment `json:"risk,omitempty"`
	Freshness    *FreshnessInfo   `json:"freshness,omitempty"`
	Activity     *ActivityInfo    `json:"activity,omitempty"`
	Environment  *EnvironmentInfo `json:"environment,omitempty"`
	Explanations []string         `json:"explanations"`
	Location     *LocationInfo    `json:"location,omitempty"`
	PetName      string           `json:"pet_name"`
}

// SubjectStatus is the compact per-subject risk summary.
type SubjectStatus struct {
	SubjectID  string           `json:"subject_id"`
	Status     string           `json:"status"` // active, recent, inactive, no_data
	Risk       *risk.Assessment `json:"risk,omitempty"`
	LastPing   *string          `json:"last_ping,omitempty"`
	MinutesAgo *int             `json:"minutes_ago,omitempty"`
	Features   *EnrichedPing    `json:"features,omitempty"`
}
