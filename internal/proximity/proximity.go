// Package proximity measures how far a ping is from each configured choke point.
package proximity

import (
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
)

// Calculate returns one Proximity per choke point, in input order. Radii are
// not applied; callers filter at query time with Proximity.Within.
func Calculate(pingID int64, lat, lon float64, chokePoints []models.ChokePoint) []models.Proximity {
	out := make([]models.Proximity, 0, len(chokePoints))
	for _, cp := range chokePoints {
		out = append(out, models.Proximity{
			PingID:       pingID,
			ChokePointID: cp.ID,
			DistanceM:    spatial.HaversineDistance(lat, lon, cp.Lat, cp.Lon),
		})
	}
	return out
}
