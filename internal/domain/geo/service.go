// internal/domain/geo/service.go

package geo

import (
	"context"
	"errors"
	"math"
	"time"
)

// Error kinds reported by geofence computations
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidThreshold  = errors.New("invalid threshold")

	// ErrInvalidVenue marks a stored venue whose coordinates are unusable.
	// It is a data fault, not a caller fault.
	ErrInvalidVenue = errors.New("invalid venue coordinates")
)

// Coordinate is a WGS84 point in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports ErrInvalidCoordinate when the point is non-finite or out of range
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return ErrInvalidCoordinate
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return ErrInvalidCoordinate
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Venue is a read-only venue snapshot handed to the matcher
type Venue struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Coordinates Coordinate     `json:"coordinates"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DistanceResult pairs a venue with its distance from a query point
type DistanceResult struct {
	Venue          Venue   `json:"venue"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// CheckIn records a user's verified presence at a venue
type CheckIn struct {
	ID             string     `json:"id"`
	VenueID        string     `json:"venueId"`
	UserID         string     `json:"userId"`
	Location       Coordinate `json:"location"`
	DistanceMeters float64    `json:"distanceMeters"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// VenueSource supplies venue snapshots
type VenueSource interface {
	// ListVenues returns every known venue
	ListVenues(ctx context.Context) ([]Venue, error)

	// GetVenue returns a single venue by ID
	GetVenue(ctx context.Context, id string) (*Venue, error)

	// ListVenuesNear returns candidate venues around a point. The result may
	// include venues outside the radius; callers compute exact distances.
	ListVenuesNear(ctx context.Context, point Coordinate, radiusMeters float64) ([]Venue, error)
}

// CheckInRecorder persists successful check-ins
type CheckInRecorder interface {
	RecordCheckIn(ctx context.Context, c CheckIn) error
}
