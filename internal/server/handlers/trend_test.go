package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hottakes/internal/adapter/storage"
	"hottakes/internal/domain/trend"
	"hottakes/internal/service/trending"
)

type fakeTrendingLister struct {
	filter trend.Filter
	scores []trend.ScoredContent
	err    error
}

func (f *fakeTrendingLister) ListTrending(_ context.Context, filter trend.Filter) ([]trend.ScoredContent, error) {
	f.filter = filter
	return f.scores, f.err
}

type fakeContentScorer struct {
	scored map[string]trend.ScoredContent
}

func (f *fakeContentScorer) ScoreByID(_ context.Context, contentID string) (*trend.ScoredContent, error) {
	s, ok := f.scored[contentID]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", contentID, storage.ErrNotFound)
	}
	return &s, nil
}

type fakeReactionRecorder struct {
	err error
}

func (f *fakeReactionRecorder) Record(_ context.Context, contentID, userID, kind string) (*trending.Reaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &trending.Reaction{ID: "r1", ContentID: contentID, UserID: userID, Kind: kind}, nil
}

func trendRouter(store TrendingLister, scorer ContentScorer, reactions ReactionRecorder) http.Handler {
	h := NewTrendHandler(store, scorer, reactions)
	r := chi.NewRouter()
	r.Get("/trending", h.GetTrending)
	r.Get("/content/{id}/trending", h.GetContentTrending)
	r.Post("/content/{id}/reactions", h.CreateReaction)
	return r
}

func TestGetTrending(t *testing.T) {
	at := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	store := &fakeTrendingLister{scores: []trend.ScoredContent{
		{ContentID: "a", Score: trend.Score{Score: 55, Velocity: 22, Label: trend.LabelOnFire, IsTrending: true}, ComputedAt: at},
	}}

	rec := doRequest(t, trendRouter(store, nil, nil), http.MethodGet, "/trending?min_score=10&label=on_fire&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, trend.Filter{MinScore: 10, Label: trend.LabelOnFire, Limit: maxTrendingLimit}, store.filter)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "a", body[0]["contentId"])
	assert.Equal(t, "on_fire", body[0]["trending"].(map[string]any)["label"])
}

func TestGetTrending_EmptyIsArray(t *testing.T) {
	rec := doRequest(t, trendRouter(&fakeTrendingLister{}, nil, nil), http.MethodGet, "/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetTrending_BadQuery(t *testing.T) {
	router := trendRouter(&fakeTrendingLister{}, nil, nil)

	for _, q := range []string{"min_score=hot", "min_score=-1", "label=lukewarm", "limit=0", "limit=ten"} {
		rec := doRequest(t, router, http.MethodGet, "/trending?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetTrending_StoreFailure(t *testing.T) {
	rec := doRequest(t, trendRouter(&fakeTrendingLister{err: errors.New("db down")}, nil, nil), http.MethodGet, "/trending", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetContentTrending(t *testing.T) {
	scorer := &fakeContentScorer{scored: map[string]trend.ScoredContent{
		"video-1": {ContentID: "video-1", Score: trend.Score{Score: 37.1, Velocity: 3, Label: trend.LabelNone, IsTrending: true}},
	}}
	router := trendRouter(nil, scorer, nil)

	rec := doRequest(t, router, http.MethodGet, "/content/video-1/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var s trend.ScoredContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.True(t, s.Score.IsTrending)
	assert.Equal(t, trend.LabelNone, s.Score.Label)

	rec = doRequest(t, router, http.MethodGet, "/content/missing/trending", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReaction(t *testing.T) {
	router := trendRouter(nil, nil, &fakeReactionRecorder{})

	rec := doRequest(t, router, http.MethodPost, "/content/video-1/reactions", `{"userId":"u1","kind":"fire"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var r trending.Reaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, "video-1", r.ContentID)
	assert.Equal(t, "u1", r.UserID)
}

func TestCreateReaction_Errors(t *testing.T) {
	rec := doRequest(t, trendRouter(nil, nil, &fakeReactionRecorder{}), http.MethodPost, "/content/video-1/reactions", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	invalid := &fakeReactionRecorder{err: fmt.Errorf("missing user: %w", trend.ErrInvalidInput)}
	rec = doRequest(t, trendRouter(nil, nil, invalid), http.MethodPost, "/content/video-1/reactions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := &fakeReactionRecorder{err: fmt.Errorf("error recording reaction: content nope: %w", storage.ErrNotFound)}
	rec = doRequest(t, trendRouter(nil, nil, missing), http.MethodPost, "/content/nope/reactions", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	broken := &fakeReactionRecorder{err: errors.New("insert failed")}
	rec = doRequest(t, trendRouter(nil, nil, broken), http.MethodPost, "/content/video-1/reactions", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
