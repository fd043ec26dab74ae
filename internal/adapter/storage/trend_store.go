// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hottakes/internal/domain/trend"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

const defaultTrendingLimit = 50

// TrendStore implements storage for computed trending scores
type TrendStore struct {
	db *pgxpool.Pool
}

// NewTrendStore creates a new trend store
func NewTrendStore(db *pgxpool.Pool) *TrendStore {
	return &TrendStore{
		db: db,
	}
}

// SaveScores upserts a batch of scores in a single round trip
func (s *TrendStore) SaveScores(ctx context.Context, scores []trend.ScoredContent) error {
	query := `
		INSERT INTO content_trending (
			content_id, score, velocity, label, is_trending, computed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (content_id) DO UPDATE
		SET
			score = $2,
			velocity = $3,
			label = $4,
			is_trending = $5,
			computed_at = $6
	`

	batch := &pgx.Batch{}
	for _, sc := range scores {
		computedAt := sc.ComputedAt
		if computedAt.IsZero() {
			computedAt = time.Now()
		}
		batch.Queue(query,
			sc.ContentID,
			sc.Score.Score,
			sc.Score.Velocity,
			string(sc.Score.Label),
			sc.Score.IsTrending,
			computedAt,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range scores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("error saving score for %s: %w", scores[i].ContentID, err)
		}
	}

	return nil
}

// GetScore retrieves the last computed score for a content item
func (s *TrendStore) GetScore(ctx context.Context, contentID string) (*trend.ScoredContent, error) {
	query := `
		SELECT content_id, score, velocity, label, is_trending, computed_at
		FROM content_trending
		WHERE content_id = $1
	`

	sc, err := scanScore(s.db.QueryRow(ctx, query, contentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying score: %w", err)
	}

	return sc, nil
}

// ListTrending returns scores matching the filter, hottest first
func (s *TrendStore) ListTrending(ctx context.Context, filter trend.Filter) ([]trend.ScoredContent, error) {
	query := `
		SELECT content_id, score, velocity, label, is_trending, computed_at
		FROM content_trending
		WHERE score >= $1
	`

	args := []interface{}{filter.MinScore}
	argIndex := 2

	if filter.Label != "" {
		query += fmt.Sprintf(" AND label = $%d", argIndex)
		args = append(args, string(filter.Label))
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	query += fmt.Sprintf(" ORDER BY score DESC, content_id ASC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var scores []trend.ScoredContent
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning score: %w", err)
		}
		scores = append(scores, *sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return scores, nil
}

func scanScore(row pgx.Row) (*trend.ScoredContent, error) {
	var sc trend.ScoredContent
	var label string

	if err := row.Scan(
		&sc.ContentID,
		&sc.Score.Score,
		&sc.Score.Velocity,
		&label,
		&sc.Score.IsTrending,
		&sc.ComputedAt,
	); err != nil {
		return nil, err
	}

	sc.Score.Label = trend.Label(label)
	return &sc, nil
}
