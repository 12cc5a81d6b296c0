package models

// DefaultChokePointRadius is used when a create request omits radius_m.
const DefaultChokePointRadius = 50.0

// ChokePoint is a place whose proximity is tracked for every outside ping.
type ChokePoint struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Lat      float64 `json:"lat" db:"lat"`
	Lon      float64 `json:"lon" db:"lon"`
	RadiusM  float64 `json:"radius_m" db:"radius_m"` // informational, not a write-time filter
	Category *string `json:"category" db:"category"`
}

// ChokePointRequest creates a choke point.
type ChokePointRequest struct {
	Name     string   `json:"name" binding:"required,min=1"`
	Lat      *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lon      *float64 `json:"lon" binding:"required,min=-180,max=180"`
	RadiusM  *float64 `json:"radius_m" binding:"omitempty,min=1"`
	Category *string  `json:"category"`
}

// ToChokePoint applies defaults.
func (r *ChokePointRequest) ToChokePoint() ChokePoint {
	cp := ChokePoint{
		Name:     r.Name,
		Lat:      *r.Lat,
		Lon:      *r.Lon,
		RadiusM:  DefaultChokePointRadius,
		Category: r.Category,
	}
	if r.RadiusM != nil {
		cp.RadiusM = *r.RadiusM
	}
	return cp
}

// Proximity is the distance from one ping to one choke point.
type Proximity struct {
	PingID       int64   `json:"ping_id" db:"ping_id"`
	ChokePointID int64   `json:"choke_point_id" db:"choke_point_id"`
	DistanceM    float64 `json:"distance_m" db:"distance_m"`
}

// Within reports whether the distance is inside radius (inclusive).
func (p Proximity) Within(radiusM float64) bool {
	return p.DistanceM <= radiusM
}
