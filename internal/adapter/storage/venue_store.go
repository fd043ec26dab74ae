// internal/adapter/storage/venue_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hottakes/internal/domain/geo"
	geoService "hottakes/internal/service/geo"
)

// VenueStore implements storage for venues and check-ins
type VenueStore struct {
	db *pgxpool.Pool
}

// NewVenueStore creates a new venue store
func NewVenueStore(db *pgxpool.Pool) *VenueStore {
	return &VenueStore{
		db: db,
	}
}

const venueColumns = `id, name, latitude, longitude, metadata`

// ListVenues returns every venue
func (s *VenueStore) ListVenues(ctx context.Context) ([]geo.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return collectVenues(rows)
}

// GetVenue retrieves a venue by ID
func (s *VenueStore) GetVenue(ctx context.Context, id string) (*geo.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`

	v, err := scanVenue(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying venue: %w", err)
	}

	return v, nil
}

// ListVenuesNear returns venues inside the bounding box around point. The
// box over-selects; exact distances are computed by the caller.
func (s *VenueStore) ListVenuesNear(ctx context.Context, point geo.Coordinate, radiusMeters float64) ([]geo.Venue, error) {
	minLat, minLng, maxLat, maxLng := geoService.BoundingBox(point, radiusMeters)

	query := `SELECT ` + venueColumns + `
		FROM venues
		WHERE latitude BETWEEN $1 AND $2
		AND longitude BETWEEN $3 AND $4
		ORDER BY id`

	rows, err := s.db.Query(ctx, query, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return collectVenues(rows)
}

// RecordCheckIn stores a verified check-in
func (s *VenueStore) RecordCheckIn(ctx context.Context, c geo.CheckIn) error {
	query := `
		INSERT INTO venue_checkins (
			id, venue_id, user_id, latitude, longitude, distance_meters, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		c.ID,
		c.VenueID,
		c.UserID,
		c.Location.Latitude,
		c.Location.Longitude,
		c.DistanceMeters,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

func collectVenues(rows pgx.Rows) ([]geo.Venue, error) {
	var venues []geo.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning venue: %w", err)
		}
		venues = append(venues, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating venues: %w", err)
	}

	return venues, nil
}

func scanVenue(row pgx.Row) (*geo.Venue, error) {
	var v geo.Venue
	var metadataJSON []byte

	if err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Coordinates.Latitude,
		&v.Coordinates.Longitude,
		&metadataJSON,
	); err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &v.Metadata); err != nil {
			return nil, fmt.Errorf("error unmarshaling metadata: %w", err)
		}
	}

	return &v, nil
}
