package geo

import "slices"

// Ranked pairs an item with its distance from the search origin.
type Ranked[T any] struct {
	Item           T
	DistanceMeters float64
}

// Within returns the items located at most radiusMeters from origin, nearest
// first. Items whose coordinate is invalid are skipped rather than ranked.
// The origin itself must be validated by the caller.
func Within[T any](origin Coordinate, radiusMeters float64, items []T, locate func(T) Coordinate) []Ranked[T] {
	if radiusMeters <= 0 || len(items) == 0 {
		return nil
	}

	box := BoundingBox(origin, radiusMeters)
	// The box does not wrap the antimeridian, so it only prunes when it stays clear of it.
	prune := box.MinLng > -180 && box.MaxLng < 180

	out := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		loc := locate(item)
		if !loc.Valid() || (prune && !box.Contains(loc)) {
			continue
		}
		if d := DistanceMeters(origin, loc); d <= radiusMeters {
			out = append(out, Ranked[T]{Item: item, DistanceMeters: d})
		}
	}

	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		default:
			return 0
		}
	})
	return out
}
