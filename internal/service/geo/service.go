// internal/service/geo/service.go

package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hottakes/internal/domain/geo"
	"hottakes/internal/metrics"
)

// GeofenceConfig contains configuration for the geofence service
type GeofenceConfig struct {
	CheckInThresholdMeters float64
	NearbyRadiusMeters     float64
	// MaxRadiusMeters caps caller supplied thresholds and radii. Zero means no cap.
	MaxRadiusMeters        float64
}

// GeofenceResult is the outcome of a presence check
type GeofenceResult struct {
	AtVenue        bool       `json:"atVenue"`
	Venue          *geo.Venue `json:"venue"`
	DistanceMeters *float64   `json:"distance"`
}

// GeofenceService answers presence questions against the venue catalogue
type GeofenceService struct {
	venues   geo.VenueSource
	checkIns geo.CheckInRecorder
	config   GeofenceConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewGeofenceService creates a new geofence service
func NewGeofenceService(
	venues geo.VenueSource,
	checkIns geo.CheckInRecorder,
	config GeofenceConfig,
	log zerolog.Logger,
) *GeofenceService {
	return &GeofenceService{
		venues:   venues,
		checkIns: checkIns,
		config:   config,
		log:      log.With().Str("component", "geofence").Logger(),
		now:      time.Now,
	}
}

// DefaultThreshold returns the configured check-in threshold in meters
func (s *GeofenceService) DefaultThreshold() float64 {
	return s.config.CheckInThresholdMeters
}

// DefaultRadius returns the configured nearby search radius in meters
func (s *GeofenceService) DefaultRadius() float64 {
	return s.config.NearbyRadiusMeters
}

// checkRadius rejects a radius beyond the configured maximum
func (s *GeofenceService) checkRadius(radiusMeters float64) error {
	if err := validateThreshold(radiusMeters); err != nil {
		return err
	}
	if s.config.MaxRadiusMeters > 0 && radiusMeters > s.config.MaxRadiusMeters {
		return fmt.Errorf("radius %v exceeds %v: %w", radiusMeters, s.config.MaxRadiusMeters, geo.ErrInvalidThreshold)
	}
	return nil
}

// Check reports whether point is within thresholdMeters of any known venue.
// A zero threshold selects the configured default.
func (s *GeofenceService) Check(ctx context.Context, point geo.Coordinate, thresholdMeters float64) (*GeofenceResult, error) {
	if thresholdMeters == 0 {
		thresholdMeters = s.config.CheckInThresholdMeters
	}
	if err := s.checkRadius(thresholdMeters); err != nil {
		metrics.ObserveGeofenceCheck("invalid")
		return nil, err
	}
	if err := point.Validate(); err != nil {
		metrics.ObserveGeofenceCheck("invalid")
		return nil, fmt.Errorf("point: %w", err)
	}

	venues, err := s.venues.ListVenuesNear(ctx, point, thresholdMeters)
	if err != nil {
		metrics.ObserveGeofenceCheck("error")
		return nil, fmt.Errorf("error loading venues: %w", err)
	}

	nearest, err := FindNearest(point, venues, thresholdMeters)
	if err != nil {
		metrics.ObserveGeofenceCheck("error")
		return nil, err
	}

	if nearest == nil {
		metrics.ObserveGeofenceCheck("miss")
		return &GeofenceResult{AtVenue: false}, nil
	}

	metrics.ObserveGeofenceCheck("hit")
	s.log.Debug().
		Str("venue_id", nearest.Venue.ID).
		Float64("distance_m", nearest.DistanceMeters).
		Msg("geofence match")

	distance := nearest.DistanceMeters
	return &GeofenceResult{
		AtVenue:        true,
		Venue:          &nearest.Venue,
		DistanceMeters: &distance,
	}, nil
}

// Nearby returns venues within radiusMeters of point, closest first.
// A zero radius selects the configured default.
func (s *GeofenceService) Nearby(ctx context.Context, point geo.Coordinate, radiusMeters float64) ([]geo.DistanceResult, error) {
	if radiusMeters == 0 {
		radiusMeters = s.config.NearbyRadiusMeters
	}
	if err := s.checkRadius(radiusMeters); err != nil {
		return nil, err
	}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("point: %w", err)
	}

	venues, err := s.venues.ListVenuesNear(ctx, point, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("error loading venues: %w", err)
	}

	return VenuesWithin(point, venues, radiusMeters)
}

// ErrOutOfRange is returned when a check-in is attempted too far from the venue
var ErrOutOfRange = errors.New("not within check-in range")

// CheckIn records userID at venueID when point lies within the check-in threshold
func (s *GeofenceService) CheckIn(ctx context.Context, venueID, userID string, point geo.Coordinate) (*geo.CheckIn, error) {
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("point: %w", err)
	}

	venue, err := s.venues.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if err := validateVenue(*venue); err != nil {
		return nil, err
	}

	d := haversine(point, venue.Coordinates)

	if d > s.config.CheckInThresholdMeters {
		metrics.ObserveGeofenceCheck("miss")
		return nil, fmt.Errorf("venue %s is %.0fm away: %w", venueID, d, ErrOutOfRange)
	}

	c := geo.CheckIn{
		ID:             uuid.New().String(),
		VenueID:        venue.ID,
		UserID:         userID,
		Location:       point,
		DistanceMeters: d,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.checkIns.RecordCheckIn(ctx, c); err != nil {
		return nil, fmt.Errorf("error recording check-in: %w", err)
	}

	metrics.ObserveGeofenceCheck("checkin")
	s.log.Info().
		Str("venue_id", c.VenueID).
		Str("user_id", c.UserID).
		Str("checkin_id", c.ID).
		Msg("check-in recorded")

	return &c, nil
}
