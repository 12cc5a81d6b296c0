package models

import "time"

// Subject is a tracked animal (or person) with an optional home zone.
type Subject struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	HomeLat   *float64  `json:"-" db:"home_lat"` // never serialized
	HomeLon   *float64  `json:"-" db:"home_lon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasHomeZone reports whether both home coordinates are set.
func (s *Subject) HasHomeZone() bool {
	return s.HomeLat != nil && s.HomeLon != nil
}

// SubjectResponse is the public view of a subject. It exposes whether a
// home zone exists but never where it is.
type SubjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasHomeZone bool   `json:"has_home_zone"`
}

// Response builds the public view.
func (s *Subject) Response() SubjectResponse {
	return SubjectResponse{ID: s.ID, Name: s.Name, HasHomeZone: s.HasHomeZone()}
}

// CreateSubjectRequest registers a subject. An empty Name defaults to ID.
type CreateSubjectRequest struct {
	ID      string   `json:"id" binding:"required"`
	Name    string   `json:"name"`
	HomeLat *float64 `json:"home_lat" binding:"omitempty,min=-90,max=90"`
	HomeLon *float64 `json:"home_lon" binding:"omitempty,min=-180,max=180"`
}

// HomeZoneRequest sets a subject's home point.
type HomeZoneRequest struct {
	HomeLat *float64 `json:"home_lat" binding:"required,min=-90,max=90"`
	HomeLon *float64 `json:"home_lon" binding:"required,min=-180,max=180"`
}
