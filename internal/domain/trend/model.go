package trend

import (
	"errors"
	"time"
)

// Error kinds reported by trending computations
var (
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidInput  = errors.New("invalid input")
)

// Label is the qualitative heat badge derived from reaction velocity
type Label string

const (
	LabelNone     Label = "none"
	LabelRising   Label = "rising"
	LabelTrending Label = "trending"
	LabelOnFire   Label = "on_fire"
)

// ReactionEvent is one engagement event on a content item
type ReactionEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Score is the derived heat signal for a content item
type Score struct {
	Score      float64 `json:"score"`
	Velocity   float64 `json:"velocity"`
	Label      Label   `json:"label"`
	IsTrending bool    `json:"isTrending"`
}

// ContentSnapshot is the minimal view of a content item needed for scoring
type ContentSnapshot struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	TotalReactions int       `json:"totalReactions"`
}

// ScoredContent is a content item with its computed score
type ScoredContent struct {
	ContentID  string    `json:"contentId"`
	Score      Score     `json:"trending"`
	ComputedAt time.Time `json:"computedAt"`
}

// Filter defines criteria for listing persisted trending content
type Filter struct {
	MinScore float64
	Label    Label
	Limit    int
}
