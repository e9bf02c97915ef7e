package geo

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Region is an axis-aligned latitude/longitude rectangle.
type Region struct {
	Name   string  `json:"name,omitempty" yaml:"name"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// DefaultCampus is the campus rectangle used when no region file is configured.
var DefaultCampus = Region{
	Name:   "campus",
	MinLat: 6.16,
	MaxLat: 6.185,
	MinLng: 1.2,
	MaxLng: 1.23,
}

// IsWithinRegion reports whether p lies inside r, bounds included.
func IsWithinRegion(p Coordinate, r Region) bool {
	return p.Latitude >= r.MinLat && p.Latitude <= r.MaxLat &&
		p.Longitude >= r.MinLng && p.Longitude <= r.MaxLng
}

// Contains is a method form of IsWithinRegion.
func (r Region) Contains(p Coordinate) bool {
	return IsWithinRegion(p, r)
}

// Validate checks that both corners are valid coordinates and min <= max on both axes.
func (r Region) Validate() error {
	lo := Coordinate{Latitude: r.MinLat, Longitude: r.MinLng}
	hi := Coordinate{Latitude: r.MaxLat, Longitude: r.MaxLng}
	if !lo.Valid() || !hi.Valid() {
		return fmt.Errorf("%w: %q has corners outside valid range", ErrInvalidRegion, r.Name)
	}
	if r.MinLat > r.MaxLat || r.MinLng > r.MaxLng {
		return fmt.Errorf("%w: %q has min greater than max", ErrInvalidRegion, r.Name)
	}
	return nil
}

type regionFile struct {
	Regions []Region `yaml:"regions"`
}

// LoadRegions decodes a YAML document with a top-level "regions" list and
// validates every entry. An empty list is an error.
func LoadRegions(r io.Reader) ([]Region, error) {
	var f regionFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no regions defined", ErrInvalidRegion)
		}
		return nil, fmt.Errorf("geo: decode regions: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, fmt.Errorf("%w: no regions defined", ErrInvalidRegion)
	}

	for _, region := range f.Regions {
		if err := region.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Regions, nil
}

// FindRegion returns the first region containing p.
func FindRegion(p Coordinate, regions []Region) (Region, bool) {
	for _, r := range regions {
		if r.Contains(p) {
			return r, true
		}
	}
	return Region{}, false
}
