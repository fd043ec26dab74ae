// internal/domain/trend/detector.go

package trend

import (
	"context"
	"time"
)

// Detector periodically rescores recent content
type Detector interface {
	// Start begins the periodic recompute loop
	Start(ctx context.Context) error

	// Stop gracefully stops the recompute loop
	Stop(ctx context.Context) error

	// RunOnce performs a single recompute pass
	RunOnce(ctx context.Context) ([]ScoredContent, error)

	// RegisterTrendHandler registers a callback invoked for every scored item
	RegisterTrendHandler(handler func(ScoredContent) error) error
}

// ContentSource supplies content and reaction snapshots
type ContentSource interface {
	// ListRecentContent returns content created at or after since
	ListRecentContent(ctx context.Context, since time.Time, limit int) ([]ContentSnapshot, error)

	// GetContent returns a single content snapshot
	GetContent(ctx context.Context, id string) (*ContentSnapshot, error)

	// ListReactionsSince returns reactions on a content item after since
	ListReactionsSince(ctx context.Context, contentID string, since time.Time) ([]ReactionEvent, error)

	// CountReactionsSince counts reactions on a content item after since
	CountReactionsSince(ctx context.Context, contentID string, since time.Time) (int, error)
}

// ReactionLog is a fast store of recent reaction timestamps
type ReactionLog interface {
	Append(ctx context.Context, contentID string, at time.Time) error
	Since(ctx context.Context, contentID string, since time.Time) ([]ReactionEvent, error)
}

// Store persists computed scores
type Store interface {
	SaveScores(ctx context.Context, scores []ScoredContent) error
	GetScore(ctx context.Context, contentID string) (*ScoredContent, error)
	ListTrending(ctx context.Context, filter Filter) ([]ScoredContent, error)
}

// Publisher pushes computed scores to the display layer
type Publisher interface {
	PublishScores(ctx context.Context, scores []ScoredContent) error
}
