package scoring

import (
	"math"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. ok is false when either point is not a valid coordinate.
func DistanceKm(lat1, lon1, lat2, lon2 float64) (km float64, ok bool) {
	if !domain.ValidCoordinates(lat1, lon1) || !domain.ValidCoordinates(lat2, lon2) {
		return 0, false
	}

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, true
}

// ProfileDistanceKm is DistanceKm for two profiles; ok is false if either lacks a location.
func ProfileDistanceKm(a, b *domain.Profile) (float64, bool) {
	lat1, lon1, ok := a.Coordinates()
	if !ok {
		return 0, false
	}
	lat2, lon2, ok := b.Coordinates()
	if !ok {
		return 0, false
	}
	return DistanceKm(lat1, lon1, lat2, lon2)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
