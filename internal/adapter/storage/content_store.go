// internal/adapter/storage/content_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hottakes/internal/domain/trend"
)

// ContentStore reads content and reaction snapshots for scoring
type ContentStore struct {
	db *pgxpool.Pool
}

// NewContentStore creates a new content store
func NewContentStore(db *pgxpool.Pool) *ContentStore {
	return &ContentStore{
		db: db,
	}
}

// ListRecentContent returns content created at or after since, newest first
func (s *ContentStore) ListRecentContent(ctx context.Context, since time.Time, limit int) ([]trend.ContentSnapshot, error) {
	query := `
		SELECT v.id, v.created_at, COUNT(r.id)
		FROM videos v
		LEFT JOIN reactions r ON r.video_id = v.id
		WHERE v.created_at >= $1
		GROUP BY v.id, v.created_at
		ORDER BY v.created_at DESC
	`

	args := []interface{}{since}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var items []trend.ContentSnapshot
	for rows.Next() {
		var c trend.ContentSnapshot
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.TotalReactions); err != nil {
			return nil, fmt.Errorf("error scanning content: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content: %w", err)
	}

	return items, nil
}

// GetContent returns a single content snapshot
func (s *ContentStore) GetContent(ctx context.Context, id string) (*trend.ContentSnapshot, error) {
	query := `
		SELECT v.id, v.created_at, COUNT(r.id)
		FROM videos v
		LEFT JOIN reactions r ON r.video_id = v.id
		WHERE v.id = $1
		GROUP BY v.id, v.created_at
	`

	var c trend.ContentSnapshot
	if err := s.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.CreatedAt, &c.TotalReactions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying content: %w", err)
	}

	return &c, nil
}

// ListReactionsSince returns reactions on a content item strictly after since
func (s *ContentStore) ListReactionsSince(ctx context.Context, contentID string, since time.Time) ([]trend.ReactionEvent, error) {
	query := `
		SELECT created_at
		FROM reactions
		WHERE video_id = $1 AND created_at > $2
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, contentID, since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var reactions []trend.ReactionEvent
	for rows.Next() {
		var r trend.ReactionEvent
		if err := rows.Scan(&r.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning reaction: %w", err)
		}
		reactions = append(reactions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}

	return reactions, nil
}

// CountReactionsSince counts reactions on a content item strictly after since
func (s *ContentStore) CountReactionsSince(ctx context.Context, contentID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reactions
		WHERE video_id = $1 AND created_at > $2
	`

	var count int
	if err := s.db.QueryRow(ctx, query, contentID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting reactions: %w", err)
	}

	return count, nil
}

// foreignKeyViolation is the SQLSTATE Postgres reports for a missing parent row
const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// RecordReaction stores one reaction on a content item. A content item that
// does not exist yields ErrNotFound.
func (s *ContentStore) RecordReaction(ctx context.Context, id, contentID, userID, kind string, at time.Time) error {
	query := `
		INSERT INTO reactions (id, video_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.Exec(ctx, query, id, contentID, userID, kind, at); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("content %s: %w", contentID, ErrNotFound)
		}
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}
