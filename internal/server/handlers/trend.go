// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hottakes/internal/adapter/storage"
	"hottakes/internal/domain/geo"
	"hottakes/internal/domain/trend"
	"hottakes/internal/service/trending"
)

const maxTrendingLimit = 100

// TrendingLister reads persisted scores
type TrendingLister interface {
	ListTrending(ctx context.Context, filter trend.Filter) ([]trend.ScoredContent, error)
}

// ContentScorer evaluates one content item on demand
type ContentScorer interface {
	ScoreByID(ctx context.Context, contentID string) (*trend.ScoredContent, error)
}

// ReactionRecorder accepts new reactions
type ReactionRecorder interface {
	Record(ctx context.Context, contentID, userID, kind string) (*trending.Reaction, error)
}

// TrendHandler handles trending-related HTTP requests
type TrendHandler struct {
	store     TrendingLister
	scorer    ContentScorer
	reactions ReactionRecorder
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(store TrendingLister, scorer ContentScorer, reactions ReactionRecorder) *TrendHandler {
	return &TrendHandler{
		store:     store,
		scorer:    scorer,
		reactions: reactions,
	}
}

// GetTrending returns the persisted trending list
func (h *TrendHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	filter := trend.Filter{}

	if v := r.URL.Query().Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil || minScore < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid min_score", err)
			return
		}
		filter.MinScore = minScore
	}

	if v := r.URL.Query().Get("label"); v != "" {
		label := trend.Label(v)
		switch label {
		case trend.LabelNone, trend.LabelRising, trend.LabelTrending, trend.LabelOnFire:
			filter.Label = label
		default:
			respondWithError(w, http.StatusBadRequest, "Invalid label", nil)
			return
		}
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		if limit > maxTrendingLimit {
			limit = maxTrendingLimit
		}
		filter.Limit = limit
	}

	scores, err := h.store.ListTrending(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get trending content", err)
		return
	}

	if scores == nil {
		scores = []trend.ScoredContent{}
	}
	respondWithJSON(w, http.StatusOK, scores)
}

// GetContentTrending evaluates one content item now
func (h *TrendHandler) GetContentTrending(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing content ID", nil)
		return
	}

	scored, err := h.scorer.ScoreByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to score content", err)
		return
	}

	respondWithJSON(w, http.StatusOK, scored)
}

type reactionRequest struct {
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
}

// CreateReaction records a reaction on a content item
func (h *TrendHandler) CreateReaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing content ID", nil)
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reaction, err := h.reactions.Record(r.Context(), id, req.UserID, req.Kind)
	if err != nil {
		respondWithServiceError(w, "Failed to record reaction", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, reaction)
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		log.Error().
			Err(err).
			Int("code", code).
			Str("message", message).
			Msg("HTTP error")
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithServiceError maps service errors to status codes
func respondWithServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, geo.ErrInvalidCoordinate):
		respondWithError(w, http.StatusBadRequest, "Invalid coordinates", nil)
	case errors.Is(err, geo.ErrInvalidThreshold):
		respondWithError(w, http.StatusBadRequest, "Invalid threshold", nil)
	case errors.Is(err, trend.ErrInvalidWindow), errors.Is(err, trend.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, "Invalid input", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, message, err)
	}
}
