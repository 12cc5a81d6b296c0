package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPing is wrapped by every PingRequest validation failure.
var ErrInvalidPing = errors.New("invalid ping")

// PingStatus is the ingestion outcome reported to callers.
type PingStatus string

const (
	PingAccepted PingStatus = "accepted"
	PingFiltered PingStatus = "filtered"
)

// RawPing is a stored position report. Home zone pings keep only the subject,
// timestamp and flag; every location field is nil.
type RawPing struct {
	ID         int64     `json:"id" db:"id"`
	SubjectID  string    `json:"subject_id" db:"subject_id"`
	Timestamp  time.Time `json:"timestamp" db:"ts_ms"`
	Lat        *float64  `json:"lat,omitempty" db:"lat"`
	Lon        *float64  `json:"lon,omitempty" db:"lon"`
	Speed      *float64  `json:"speed,omitempty" db:"speed"`       // m/s
	Bearing    *float64  `json:"bearing,omitempty" db:"bearing"`   // degrees, 0 = north
	Accuracy   *float64  `json:"accuracy,omitempty" db:"accuracy"` // meters
	IsHomeZone bool      `json:"is_home_zone" db:"is_home_zone"`
}

// PingRequest is an incoming position report. Either user or subject_id names the subject.
type PingRequest struct {
	User      string     `json:"user"`
	SubjectID string     `json:"subject_id"`
	Lat       *float64   `json:"lat" binding:"required"`
	Lon       *float64   `json:"lon" binding:"required"`
	Speed     *float64   `json:"speed"`
	Bearing   *float64   `json:"bearing"`
	Accuracy  *float64   `json:"accuracy"`
	Timestamp *time.Time `json:"timestamp"`
}

// Subject returns the subject identifier, preferring subject_id.
func (r *PingRequest) Subject() string {
	if s := strings.TrimSpace(r.SubjectID); s != "" {
		return s
	}
	return strings.TrimSpace(r.User)
}

// Validate checks field ranges. It does not fill defaults.
func (r *PingRequest) Validate() error {
	if r.Subject() == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidPing)
	}
	if r.Lat == nil || *r.Lat < -90 || *r.Lat > 90 {
		return fmt.Errorf("%w: lat must be within [-90, 90]", ErrInvalidPing)
	}
	if r.Lon == nil || *r.Lon < -180 || *r.Lon > 180 {
		return fmt.Errorf("%w: lon must be within [-180, 180]", ErrInvalidPing)
	}
	if r.Speed != nil && *r.Speed < 0 {
		return fmt.Errorf("%w: speed must be >= 0", ErrInvalidPing)
	}
	if r.Bearing != nil && (*r.Bearing < 0 || *r.Bearing >= 360) {
		return fmt.Errorf("%w: bearing must be within [0, 360)", ErrInvalidPing)
	}
	if r.Accuracy != nil && *r.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy must be >= 0", ErrInvalidPing)
	}
	return nil
}

// TimestampOr returns the request timestamp in UTC, or now when absent.
func (r *PingRequest) TimestampOr(now time.Time) time.Time {
	if r.Timestamp == nil || r.Timestamp.IsZero() {
		return now.UTC()
	}
	return r.Timestamp.UTC()
}

// PingResponse reports how a ping was handled.
type PingResponse struct {
	Status            PingStatus `json:"status"`
	PingID            *int64     `json:"ping_id"`
	EnrichmentPending bool       `json:"enrichment_pending"`
}

// OwnTracksLocation is the OwnTracks "location" message.
type OwnTracksLocation struct {
	Type string   `json:"_type"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Vel  *float64 `json:"vel"` // km/h
	Cog  *float64 `json:"cog"` // degrees
	Acc  *float64 `json:"acc"` // meters
	Tst  *int64   `json:"tst"` // unix seconds
	Tid  string   `json:"tid"`
	Batt *int     `json:"batt"`
}

const kmhPerMS = 3.6

// IsLocation reports whether the message carries a position. A missing type is
// treated as a location for HTTP-mode clients that strip it.
func (o *OwnTracksLocation) IsLocation() bool {
	return o.Type == "" || o.Type == "location"
}

// ToPingRequest converts the message for subjectID. The tracker ID is ignored.
func (o *OwnTracksLocation) ToPingRequest(subjectID string) PingRequest {
	req := PingRequest{
		SubjectID: subjectID,
		Lat:       o.Lat,
		Lon:       o.Lon,
		Bearing:   o.Cog,
		Accuracy:  o.Acc,
	}
	if o.Vel != nil {
		speed := *o.Vel / kmhPerMS
		req.Speed = &speed
	}
	if o.Tst != nil {
		ts := time.Unix(*o.Tst, 0).UTC()
		req.Timestamp = &ts
	}
	return req
}
