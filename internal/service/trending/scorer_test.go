package trending

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hottakes/internal/domain/trend"
)

var fixedNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func reactionsAgo(offsets ...time.Duration) []trend.ReactionEvent {
	events := make([]trend.ReactionEvent, 0, len(offsets))
	for _, off := range offsets {
		events = append(events, trend.ReactionEvent{Timestamp: fixedNow.Add(-off)})
	}
	return events
}

func evenlySpaced(n int, step time.Duration) []trend.ReactionEvent {
	offsets := make([]time.Duration, n)
	for i := range offsets {
		offsets[i] = time.Duration(i) * step
	}
	return reactionsAgo(offsets...)
}

func TestVelocity_CountsOnlyInsideWindow(t *testing.T) {
	events := reactionsAgo(
		0,
		30*time.Second,
		4*time.Minute,
		5*time.Minute, // on the boundary, excluded
		6*time.Minute,
		time.Hour,
	)

	v, err := Velocity(events, fixedNow, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0/5.0, v, 1e-9)
}

func TestVelocity_Empty(t *testing.T) {
	v, err := Velocity(nil, fixedNow, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestVelocity_MonotonicInReactions(t *testing.T) {
	prev := -1.0
	for n := 0; n <= 50; n += 5 {
		v, err := Velocity(evenlySpaced(n, time.Second), fixedNow, 5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestVelocity_InvalidWindow(t *testing.T) {
	for _, w := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := Velocity(nil, fixedNow, w)
		assert.ErrorIs(t, err, trend.ErrInvalidWindow, "window %v", w)
	}
}

func TestComputeScore_ZeroEverything(t *testing.T) {
	s, err := ComputeScore(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestComputeScore_Formula(t *testing.T) {
	s, err := ComputeScore(15, 3, 10)
	require.NoError(t, err)

	want := (3*10 + math.Log(16)*5) * math.Exp(-10.0/60)
	assert.InDelta(t, want, s, 1e-9)
	assert.InDelta(t, 37.13, s, 0.05)
}

func TestComputeScore_DecaysWithAge(t *testing.T) {
	prev := math.Inf(1)
	for age := 0.0; age <= 600; age += 30 {
		s, err := ComputeScore(100, 4, age)
		require.NoError(t, err)
		assert.Less(t, s, prev)
		assert.GreaterOrEqual(t, s, 0.0)
		prev = s
	}
}

func TestComputeScore_MonotonicInVelocityAndTotal(t *testing.T) {
	low, err := ComputeScore(10, 1, 5)
	require.NoError(t, err)

	fasterScore, err := ComputeScore(10, 2, 5)
	require.NoError(t, err)
	assert.Greater(t, fasterScore, low)

	moreScore, err := ComputeScore(20, 1, 5)
	require.NoError(t, err)
	assert.Greater(t, moreScore, low)
}

func TestComputeScore_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		velocity float64
		age      float64
	}{
		{"negative total", -1, 0, 0},
		{"negative velocity", 0, -0.1, 0},
		{"NaN velocity", 0, math.NaN(), 0},
		{"negative age", 0, 0, -1},
		{"infinite age", 0, 0, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeScore(tt.total, tt.velocity, tt.age)
			assert.ErrorIs(t, err, trend.ErrInvalidInput)
		})
	}
}

func TestLabelFor_Breakpoints(t *testing.T) {
	tests := []struct {
		velocity float64
		want     trend.Label
	}{
		{21, trend.LabelOnFire},
		{20.0001, trend.LabelOnFire},
		{20, trend.LabelTrending},
		{10.5, trend.LabelTrending},
		{10, trend.LabelRising},
		{5.01, trend.LabelRising},
		{5, trend.LabelNone},
		{0, trend.LabelNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.velocity), "velocity %v", tt.velocity)
	}
}

func TestIsTrending_StrictThreshold(t *testing.T) {
	assert.False(t, IsTrending(10))
	assert.True(t, IsTrending(10.0001))
	assert.False(t, IsTrending(0))
}

func TestScorer_ConfigurableThreshold(t *testing.T) {
	s := NewScorer(ScorerConfig{TrendingThreshold: 50})
	assert.False(t, s.IsTrending(37))
	assert.True(t, s.IsTrending(51))
	assert.Equal(t, DefaultWindowMinutes, s.Config().WindowMinutes)
}

func TestScorer_ZeroWindowUsesDefault(t *testing.T) {
	s := NewScorer(ScorerConfig{TrendingThreshold: DefaultTrendingThreshold})
	assert.Equal(t, DefaultScorerConfig(), s.Config())
	assert.Equal(t, 5*time.Minute, s.WindowDuration())
	assert.Equal(t, fixedNow.Add(-5*time.Minute), s.WindowStart(fixedNow))

	s = NewScorer(ScorerConfig{WindowMinutes: -3})
	assert.Equal(t, DefaultWindowMinutes, s.Config().WindowMinutes)
}

func TestScorer_ZeroThresholdIsHonored(t *testing.T) {
	s := NewScorer(ScorerConfig{TrendingThreshold: 0})
	assert.Equal(t, 0.0, s.Config().TrendingThreshold)
	assert.True(t, s.IsTrending(0.5))
	assert.False(t, s.IsTrending(0))

	item := trend.ContentSnapshot{ID: "quiet", CreatedAt: fixedNow.Add(-time.Minute), TotalReactions: 1}
	score, err := s.Evaluate(item, reactionsAgo(30*time.Second), fixedNow)
	require.NoError(t, err)
	assert.Less(t, score.Score, DefaultTrendingThreshold)
	assert.True(t, score.IsTrending)
}

func TestScorer_EvaluateEndToEnd(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	item := trend.ContentSnapshot{
		ID:             "video-1",
		CreatedAt:      fixedNow.Add(-10 * time.Minute),
		TotalReactions: 15,
	}

	score, err := s.Evaluate(item, evenlySpaced(15, 10*time.Second), fixedNow)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, score.Velocity, 1e-9)
	assert.InDelta(t, 37.1, score.Score, 0.1)
	assert.True(t, score.IsTrending)
	// Velocity of 3 is below every badge even though the score is high
	assert.Equal(t, trend.LabelNone, score.Label)
}

func TestScorer_EvaluateFutureCreatedAtTreatedAsNew(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	item := trend.ContentSnapshot{
		ID:             "video-2",
		CreatedAt:      fixedNow.Add(2 * time.Minute),
		TotalReactions: 0,
	}

	score, err := s.Evaluate(item, evenlySpaced(60, time.Second), fixedNow)
	require.NoError(t, err)

	assert.InDelta(t, 12.0, score.Velocity, 1e-9)
	assert.InDelta(t, 120.0, score.Score, 1e-9)
	assert.Equal(t, trend.LabelTrending, score.Label)
}

func TestScorer_EvaluateRejectsBadSnapshot(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	_, err := s.Evaluate(trend.ContentSnapshot{ID: "bad", CreatedAt: fixedNow, TotalReactions: -3}, nil, fixedNow)
	assert.ErrorIs(t, err, trend.ErrInvalidInput)
}
