// internal/service/geo/matcher.go

package geo

import (
	"fmt"
	"math"
	"sort"

	"hottakes/internal/domain/geo"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the Haversine formula
	EarthRadiusMeters = 6371000.0

	// MetersPerKilometer converts request radii given in kilometres
	MetersPerKilometer = 1000.0
)

// Distance calculates the great-circle distance between two coordinates in meters
func Distance(a, b geo.Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("distance from (%v, %v): %w", a.Latitude, a.Longitude, err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("distance to (%v, %v): %w", b.Latitude, b.Longitude, err)
	}

	return haversine(a, b), nil
}

func haversine(a, b geo.Coordinate) float64 {
	// Convert latitude and longitude from degrees to radians
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin

	// Rounding can push h a hair above 1 for antipodal points
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func validateThreshold(thresholdMeters float64) error {
	if math.IsNaN(thresholdMeters) || math.IsInf(thresholdMeters, 0) || thresholdMeters <= 0 {
		return fmt.Errorf("threshold %v: %w", thresholdMeters, geo.ErrInvalidThreshold)
	}
	return nil
}

func validateVenue(v geo.Venue) error {
	if v.Coordinates.Validate() != nil {
		return fmt.Errorf("venue %s at (%v, %v): %w", v.ID, v.Coordinates.Latitude, v.Coordinates.Longitude, geo.ErrInvalidVenue)
	}
	return nil
}

// FindNearest returns the closest venue within thresholdMeters of point, or nil
// when none qualifies. The first venue at the minimum distance wins.
func FindNearest(point geo.Coordinate, venues []geo.Venue, thresholdMeters float64) (*geo.DistanceResult, error) {
	if err := validateThreshold(thresholdMeters); err != nil {
		return nil, err
	}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("point: %w", err)
	}

	var best *geo.DistanceResult
	for i := range venues {
		v := venues[i]
		if err := validateVenue(v); err != nil {
			return nil, err
		}

		d := haversine(point, v.Coordinates)
		if best == nil || d < best.DistanceMeters {
			best = &geo.DistanceResult{Venue: v, DistanceMeters: d}
		}
	}

	if best == nil || best.DistanceMeters > thresholdMeters {
		return nil, nil
	}

	return best, nil
}

// VenuesWithin returns every venue within radiusMeters of point, closest first.
// Venues at equal distance keep their input order.
func VenuesWithin(point geo.Coordinate, venues []geo.Venue, radiusMeters float64) ([]geo.DistanceResult, error) {
	if err := validateThreshold(radiusMeters); err != nil {
		return nil, err
	}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("point: %w", err)
	}

	results := make([]geo.DistanceResult, 0, len(venues))
	for _, v := range venues {
		if err := validateVenue(v); err != nil {
			return nil, err
		}

		d := haversine(point, v.Coordinates)
		if d <= radiusMeters {
			results = append(results, geo.DistanceResult{Venue: v, DistanceMeters: d})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	return results, nil
}

// WithinRadius checks if a point lies within radiusMeters of center
func WithinRadius(point, center geo.Coordinate, radiusMeters float64) (bool, error) {
	if err := validateThreshold(radiusMeters); err != nil {
		return false, err
	}

	d, err := Distance(point, center)
	if err != nil {
		return false, err
	}

	return d <= radiusMeters, nil
}

// BoundingBox returns the lat/lng box enclosing a circle of radiusMeters around
// point. Used to prefilter candidates before exact distance checks, so it
// must never exclude a point inside the circle.
func BoundingBox(point geo.Coordinate, radiusMeters float64) (minLat, minLng, maxLat, maxLng float64) {
	angular := radiusMeters / EarthRadiusMeters
	latDelta := angular * 180.0 / math.Pi

	minLat = point.Latitude - latDelta
	maxLat = point.Latitude + latDelta

	// A circle containing a pole spans every meridian
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(-90, minLat), -180, math.Min(90, maxLat), 180
	}

	// Widest longitude offset reached by the circle, at the tangent meridians
	s := math.Sin(angular) / math.Cos(point.Latitude*math.Pi/180.0)
	if s >= 1 {
		return minLat, -180, maxLat, 180
	}
	lngDelta := math.Asin(s) * 180.0 / math.Pi

	minLng = point.Longitude - lngDelta
	maxLng = point.Longitude + lngDelta

	// A box crossing the antimeridian falls back to the full longitude range
	if minLng < -180 || maxLng > 180 {
		minLng, maxLng = -180, 180
	}

	return minLat, minLng, maxLat, maxLng
}
