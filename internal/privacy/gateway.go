package privacy

import (
	"log/slog"

	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
)

// DefaultRadiusMeters is the home zone radius used when none is configured.
const DefaultRadiusMeters = 50.0

// Fix is an unclassified position report.
type Fix struct {
	Lat      float64
	Lon      float64
	Speed    *float64
	Bearing  *float64
	Accuracy *float64
}

// HomeLocation is a subject's configured home point.
type HomeLocation struct {
	Lat float64
	Lon float64
}

// Classification is the result of passing a Fix through the gateway.
// It is either HomeZone or Outside; no other implementations exist.
type Classification interface {
	isClassification()
}

// HomeZone marks a fix that fell inside the home radius. It carries no
// location data, so nothing downstream can observe where the subject was.
type HomeZone struct{}

// Outside carries a fix that is safe to process.
type Outside struct {
	Fix Fix
}

func (HomeZone) isClassification() {}
func (Outside) isClassification()  {}

// Gateway decides whether a fix may leave the ingestion boundary.
type Gateway struct {
	radiusMeters float64
	logger       *slog.Logger
}

// NewGateway creates a gateway. A non-positive radius falls back to DefaultRadiusMeters.
func NewGateway(radiusMeters float64, logger *slog.Logger) *Gateway {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{radiusMeters: radiusMeters, logger: logger}
}

// RadiusMeters returns the configured home zone radius.
func (g *Gateway) RadiusMeters() float64 {
	return g.radiusMeters
}

// Classify reports whether fix lies within the home radius (inclusive).
// A nil home never matches and the fix passes through unchanged.
func (g *Gateway) Classify(fix Fix, home *HomeLocation) Classification {
	if home == nil {
		return Outside{Fix: fix}
	}

	if spatial.WithinRadius(fix.Lat, fix.Lon, home.Lat, home.Lon, g.radiusMeters) {
		// Never attach coordinates, distance, or subject to this record.
		g.logger.Info("home zone ping filtered at gateway")
		return HomeZone{}
	}

	return Outside{Fix: fix}
}
