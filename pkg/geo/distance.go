package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// metersPerDegreeLat is the length of one degree of latitude on the sphere
// DistanceMeters measures on.
const metersPerDegreeLat = EarthRadiusMeters * math.Pi / 180

// boxSlack pads BoundingBox so points exactly on the radius survive rounding.
const boxSlack = 1e-9

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula. Both points must be valid.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// FormatDistance renders whole meters below one kilometer, otherwise
// kilometers with one decimal: 500 -> "500m", 1234 -> "1.2km".
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// BoundingBox returns the rectangle enclosing a circle of radiusMeters around
// center. It is a cheap pre-filter; use DistanceMeters for the exact check.
// Latitude is clamped to the poles and longitude to [-180,180]; a circle that
// covers a pole spans every longitude.
func BoundingBox(center Coordinate, radiusMeters float64) Region {
	latDelta := radiusMeters/metersPerDegreeLat + boxSlack

	// Widest longitude offset of the circle, reached north or south of the
	// center: asin(sin(r/R) / cos(lat)).
	angular := radiusMeters / EarthRadiusMeters
	cosLat := math.Cos(toRad(center.Latitude))
	lonDelta := 180.0
	if angular < math.Pi/2 && math.Sin(angular) < cosLat {
		lonDelta = min(toDeg(math.Asin(math.Sin(angular)/cosLat))+boxSlack, 180)
	}

	return Region{
		MinLat: math.Max(center.Latitude-latDelta, -90),
		MaxLat: math.Min(center.Latitude+latDelta, 90),
		MinLng: math.Max(center.Longitude-lonDelta, -180),
		MaxLng: math.Min(center.Longitude+lonDelta, 180),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
