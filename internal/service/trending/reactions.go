package trending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hottakes/internal/domain/trend"
)

// ReactionWriter persists reactions durably
type ReactionWriter interface {
	RecordReaction(ctx context.Context, id, contentID, userID, kind string, at time.Time) error
}

// Reaction is an accepted reaction
type Reaction struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionService records reactions in the store and mirrors them into the
// reaction log used for velocity.
type ReactionService struct {
	writer ReactionWriter
	log    trend.ReactionLog
	logger zerolog.Logger
	now    func() time.Time
}

// NewReactionService creates a reaction service. reactionLog may be nil.
func NewReactionService(writer ReactionWriter, reactionLog trend.ReactionLog, logger zerolog.Logger) *ReactionService {
	return &ReactionService{
		writer: writer,
		log:    reactionLog,
		logger: logger.With().Str("component", "reactions").Logger(),
		now:    time.Now,
	}
}

// Record stores a reaction. The store write is authoritative; a reaction log
// failure is logged, not returned, and the detector reads the store whenever
// the log holds fewer reactions than the store for a window.
func (s *ReactionService) Record(ctx context.Context, contentID, userID, kind string) (*Reaction, error) {
	contentID = strings.TrimSpace(contentID)
	userID = strings.TrimSpace(userID)
	if contentID == "" || userID == "" {
		return nil, fmt.Errorf("content and user are required: %w", trend.ErrInvalidInput)
	}
	if kind == "" {
		kind = "fire"
	}

	r := Reaction{
		ID:        uuid.New().String(),
		ContentID: contentID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}

	if err := s.writer.RecordReaction(ctx, r.ID, r.ContentID, r.UserID, r.Kind, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("error recording reaction: %w", err)
	}

	if s.log != nil {
		if err := s.log.Append(ctx, r.ContentID, r.CreatedAt); err != nil {
			s.logger.Warn().Err(err).Str("content_id", r.ContentID).Msg("failed to append to reaction log")
		}
	}

	return &r, nil
}
