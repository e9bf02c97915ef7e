package geo

import (
	"fmt"
	"math"
)

// Coordinate is a WGS 84 point in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// IsValidCoordinate reports whether latitude is within [-90,90] and longitude
// within [-180,180]. NaN and infinite values are never valid.
func IsValidCoordinate(c Coordinate) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Valid is a method form of IsValidCoordinate.
func (c Coordinate) Valid() bool {
	return IsValidCoordinate(c)
}

// Validate returns ErrInvalidCoordinate wrapped with the offending values.
func (c Coordinate) Validate() error {
	if !IsValidCoordinate(c) {
		return fmt.Errorf("%w: latitude=%v longitude=%v", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}
