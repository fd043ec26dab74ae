// internal/server/handlers/geo.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hottakes/internal/domain/geo"
	geoService "hottakes/internal/service/geo"
)

// GeofenceChecker is the geofence behaviour the handlers depend on
type GeofenceChecker interface {
	Check(ctx context.Context, point geo.Coordinate, thresholdMeters float64) (*geoService.GeofenceResult, error)
	Nearby(ctx context.Context, point geo.Coordinate, radiusMeters float64) ([]geo.DistanceResult, error)
	CheckIn(ctx context.Context, venueID, userID string, point geo.Coordinate) (*geo.CheckIn, error)
}

// GeoHandler handles geofence-related HTTP requests
type GeoHandler struct {
	service GeofenceChecker
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(service GeofenceChecker) *GeoHandler {
	return &GeoHandler{
		service: service,
	}
}

type geofenceRequest struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ThresholdMeters float64  `json:"thresholdMeters"`
}

// CheckGeofence reports whether the posted coordinate is at a known venue
func (h *GeoHandler) CheckGeofence(w http.ResponseWriter, r *http.Request) {
	var req geofenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		respondWithError(w, http.StatusBadRequest, "Missing location parameters", nil)
		return
	}

	// Zero means "use the configured default"; negative values must be rejected
	if req.ThresholdMeters < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid threshold", geo.ErrInvalidThreshold)
		return
	}

	point := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}

	result, err := h.service.Check(r.Context(), point, req.ThresholdMeters)
	if err != nil {
		respondWithServiceError(w, "Failed to check geofence", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetNearbyVenues returns venues near a location, closest first
func (h *GeoHandler) GetNearbyVenues(w http.ResponseWriter, r *http.Request) {
	point, ok := parseLocationQuery(w, r)
	if !ok {
		return
	}

	// radius is meters; radius_km is accepted for older clients
	radius := 0.0
	if radiusStr := r.URL.Query().Get("radius"); radiusStr != "" {
		v, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || v <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
			return
		}
		radius = v
	} else if kmStr := r.URL.Query().Get("radius_km"); kmStr != "" {
		v, err := strconv.ParseFloat(kmStr, 64)
		if err != nil || v <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
			return
		}
		radius = v * geoService.MetersPerKilometer
	}

	venues, err := h.service.Nearby(r.Context(), point, radius)
	if err != nil {
		respondWithServiceError(w, "Failed to get nearby venues", err)
		return
	}

	if venues == nil {
		venues = []geo.DistanceResult{}
	}
	respondWithJSON(w, http.StatusOK, venues)
}

type checkInRequest struct {
	UserID    string   `json:"userId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CheckIn records the caller at a venue when they are within range
func (h *GeoHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "id")
	if venueID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing venue ID", nil)
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondWithError(w, http.StatusBadRequest, "Missing location parameters", nil)
		return
	}

	point := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}

	checkIn, err := h.service.CheckIn(r.Context(), venueID, req.UserID, point)
	if err != nil {
		if errors.Is(err, geoService.ErrOutOfRange) {
			respondWithError(w, http.StatusForbidden, "Not at venue", nil)
			return
		}
		respondWithServiceError(w, "Failed to check in", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, checkIn)
}

// parseLocationQuery reads lat/lng query parameters, writing a 400 on failure
func parseLocationQuery(w http.ResponseWriter, r *http.Request) (geo.Coordinate, bool) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" || lngStr == "" {
		respondWithError(w, http.StatusBadRequest, "Missing location parameters", nil)
		return geo.Coordinate{}, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude", err)
		return geo.Coordinate{}, false
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude", err)
		return geo.Coordinate{}, false
	}

	return geo.Coordinate{Latitude: lat, Longitude: lng}, true
}
