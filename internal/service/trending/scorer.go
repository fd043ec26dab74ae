// internal/service/trending/scorer.go

package trending

import (
	"fmt"
	"math"
	"time"

	"hottakes/internal/domain/trend"
)

const (
	// DefaultWindowMinutes is the trailing window used for velocity
	DefaultWindowMinutes = 5.0

	// DefaultTrendingThreshold is the score above which content is trending
	DefaultTrendingThreshold = 10.0

	decayMinutes     = 60.0
	velocityWeight   = 10.0
	engagementWeight = 5.0
	onFireVelocity   = 20.0
	trendingVelocity = 10.0
	risingVelocity   = 5.0
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func windowDuration(windowMinutes float64) time.Duration {
	return time.Duration(windowMinutes * float64(time.Minute))
}

// Velocity returns reactions per minute over the trailing window ending at now.
// Only events strictly after now-window count.
func Velocity(reactions []trend.ReactionEvent, now time.Time, windowMinutes float64) (float64, error) {
	if !finite(windowMinutes) || windowMinutes <= 0 {
		return 0, fmt.Errorf("window %v minutes: %w", windowMinutes, trend.ErrInvalidWindow)
	}

	cutoff := now.Add(-windowDuration(windowMinutes))

	count := 0
	for _, r := range reactions {
		if r.Timestamp.After(cutoff) {
			count++
		}
	}

	return float64(count) / windowMinutes, nil
}

// ComputeScore combines engagement and velocity, decayed by age.
//
//	score = (velocity*10 + ln(total+1)*5) * exp(-age/60)
//
// There is no upper bound.
func ComputeScore(totalReactions int, velocity, ageMinutes float64) (float64, error) {
	if totalReactions < 0 {
		return 0, fmt.Errorf("total reactions %d: %w", totalReactions, trend.ErrInvalidInput)
	}
	if !finite(velocity) || velocity < 0 {
		return 0, fmt.Errorf("velocity %v: %w", velocity, trend.ErrInvalidInput)
	}
	if !finite(ageMinutes) || ageMinutes < 0 {
		return 0, fmt.Errorf("age %v minutes: %w", ageMinutes, trend.ErrInvalidInput)
	}

	decay := math.Exp(-ageMinutes / decayMinutes)
	velocityTerm := velocity * velocityWeight
	engagementTerm := math.Log(float64(totalReactions)+1) * engagementWeight

	return (velocityTerm + engagementTerm) * decay, nil
}

// LabelFor maps a velocity to its badge
func LabelFor(velocity float64) trend.Label {
	switch {
	case velocity > onFireVelocity:
		return trend.LabelOnFire
	case velocity > trendingVelocity:
		return trend.LabelTrending
	case velocity > risingVelocity:
		return trend.LabelRising
	default:
		return trend.LabelNone
	}
}

// IsTrending reports whether score exceeds DefaultTrendingThreshold
func IsTrending(score float64) bool {
	return score > DefaultTrendingThreshold
}

// ScorerConfig holds the tunable scorer options
type ScorerConfig struct {
	TrendingThreshold float64
	WindowMinutes     float64
}

// DefaultScorerConfig returns the standard scorer options
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		TrendingThreshold: DefaultTrendingThreshold,
		WindowMinutes:     DefaultWindowMinutes,
	}
}

// Scorer applies the trending formulas with a fixed configuration.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	config ScorerConfig
}

// NewScorer creates a scorer. The threshold is used as given, so zero makes
// any positive score trending. A non-positive window falls back to the default.
func NewScorer(config ScorerConfig) *Scorer {
	if config.WindowMinutes <= 0 {
		config.WindowMinutes = DefaultWindowMinutes
	}
	return &Scorer{config: config}
}

// Config returns the scorer options in effect
func (s *Scorer) Config() ScorerConfig {
	return s.config
}

// IsTrending reports whether score exceeds the configured threshold
func (s *Scorer) IsTrending(score float64) bool {
	return score > s.config.TrendingThreshold
}

// WindowDuration returns the velocity window as a duration
func (s *Scorer) WindowDuration() time.Duration {
	return windowDuration(s.config.WindowMinutes)
}

// WindowStart returns the earliest instant that can still count toward velocity at now
func (s *Scorer) WindowStart(now time.Time) time.Time {
	return now.Add(-windowDuration(s.config.WindowMinutes))
}

// Evaluate scores one content item. The label follows velocity while the
// trending flag follows the decayed score, so the two can disagree.
func (s *Scorer) Evaluate(item trend.ContentSnapshot, reactions []trend.ReactionEvent, now time.Time) (trend.Score, error) {
	velocity, err := Velocity(reactions, now, s.config.WindowMinutes)
	if err != nil {
		return trend.Score{}, err
	}

	ageMinutes := now.Sub(item.CreatedAt).Minutes()
	if ageMinutes < 0 {
		// Clock skew between writers; treat as brand new
		ageMinutes = 0
	}

	score, err := ComputeScore(item.TotalReactions, velocity, ageMinutes)
	if err != nil {
		return trend.Score{}, fmt.Errorf("content %s: %w", item.ID, err)
	}

	return trend.Score{
		Score:      score,
		Velocity:   velocity,
		Label:      LabelFor(velocity),
		IsTrending: s.IsTrending(score),
	}, nil
}
