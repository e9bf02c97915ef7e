// Package geo provides the proximity and geofencing primitives used to decide
// which users a location-bound event is relevant to.
//
// All functions are pure: results depend only on their arguments.
//
// Callers must validate coordinates before computing distances or testing
// region membership:
//
//	if err := origin.Validate(); err != nil {
//		return err
//	}
//	if !geo.IsWithinRegion(origin, geo.DefaultCampus) {
//		return ErrOutsideCampus
//	}
//	d := geo.DistanceMeters(origin, driver)
//	fmt.Println(geo.FormatDistance(d)) // "350m" or "1.2km"
//
// Regions can be loaded from YAML:
//
//	regions:
//	  - name: main-campus
//	    min_lat: 6.16
//	    max_lat: 6.185
//	    min_lng: 1.2
//	    max_lng: 1.23
package geo
