// internal/service/trending/detector.go

package trending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hottakes/internal/domain/trend"
	"hottakes/internal/metrics"
)

var _ trend.Detector = (*Detector)(nil)

// DetectorConfig contains configuration for the trending detector
type DetectorConfig struct {
	RecomputeInterval time.Duration
	ContentLookback   time.Duration
	BatchLimit        int
}

// Detector implements the trend.Detector interface. It polls the content
// source on a fixed interval and rescores everything in the lookback window.
type Detector struct {
	scorer        *Scorer
	content       trend.ContentSource
	reactionLog   trend.ReactionLog
	store         trend.Store
	publisher     trend.Publisher
	config        DetectorConfig
	log           zerolog.Logger
	now           func() time.Time
	trendHandlers []func(trend.ScoredContent) error
	mu            sync.RWMutex
	runMu         sync.Mutex
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewDetector creates a new trending detector. reactionLog and publisher may be nil.
func NewDetector(
	scorer *Scorer,
	content trend.ContentSource,
	reactionLog trend.ReactionLog,
	store trend.Store,
	publisher trend.Publisher,
	config DetectorConfig,
	log zerolog.Logger,
) *Detector {
	return &Detector{
		scorer:        scorer,
		content:       content,
		reactionLog:   reactionLog,
		store:         store,
		publisher:     publisher,
		config:        config,
		log:           log.With().Str("component", "trending_detector").Logger(),
		now:           time.Now,
		trendHandlers: []func(trend.ScoredContent) error{},
	}
}

// Start begins the periodic recompute loop
func (d *Detector) Start(ctx context.Context) error {
	if d.config.RecomputeInterval <= 0 {
		return fmt.Errorf("recompute interval must be positive, got %s", d.config.RecomputeInterval)
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return fmt.Errorf("detector already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go d.loop(runCtx)

	d.log.Info().Dur("interval", d.config.RecomputeInterval).Msg("trending detector started")
	return nil
}

// loop reruns the recompute on every tick until ctx is cancelled
func (d *Detector) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RecomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
				d.log.Error().Err(err).Msg("trending recompute failed")
			}
		}
	}
}

// RunOnce performs a single recompute pass. Items that fail to score are
// logged and omitted; only source and store failures abort the pass.
func (d *Detector) RunOnce(ctx context.Context) ([]trend.ScoredContent, error) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	started := time.Now()
	now := d.now()

	items, err := d.content.ListRecentContent(ctx, now.Add(-d.config.ContentLookback), d.config.BatchLimit)
	if err != nil {
		metrics.ObserveTrendingRun("error", time.Since(started))
		return nil, fmt.Errorf("error listing content: %w", err)
	}

	scored := make([]trend.ScoredContent, 0, len(items))
	for _, item := range items {
		s, err := d.Score(ctx, item, now)
		if err != nil {
			metrics.ObserveTrendingItem("skipped")
			d.log.Warn().Err(err).Str("content_id", item.ID).Msg("skipping content item")
			continue
		}
		metrics.ObserveTrendingItem("scored")
		scored = append(scored, *s)
	}

	if len(scored) > 0 {
		if err := d.store.SaveScores(ctx, scored); err != nil {
			metrics.ObserveTrendingRun("error", time.Since(started))
			return nil, fmt.Errorf("error saving scores: %w", err)
		}

		if d.publisher != nil {
			if err := d.publisher.PublishScores(ctx, scored); err != nil {
				d.log.Error().Err(err).Msg("error publishing trending scores")
			}
		}

		d.callTrendHandlers(scored)
	}

	metrics.ObserveTrendingRun("ok", time.Since(started))
	d.log.Debug().
		Int("items", len(items)).
		Int("scored", len(scored)).
		Dur("took", time.Since(started)).
		Msg("trending recompute complete")

	return scored, nil
}

// Score evaluates a single content item at now
func (d *Detector) Score(ctx context.Context, item trend.ContentSnapshot, now time.Time) (*trend.ScoredContent, error) {
	reactions, err := d.recentReactions(ctx, item.ID, d.scorer.WindowStart(now))
	if err != nil {
		return nil, err
	}

	score, err := d.scorer.Evaluate(item, reactions, now)
	if err != nil {
		return nil, err
	}

	return &trend.ScoredContent{
		ContentID:  item.ID,
		Score:      score,
		ComputedAt: now,
	}, nil
}

// ScoreByID loads one content item and evaluates it now
func (d *Detector) ScoreByID(ctx context.Context, contentID string) (*trend.ScoredContent, error) {
	item, err := d.content.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return d.Score(ctx, *item, d.now())
}

// recentReactions reads the reaction log when it holds every reaction the
// store has for the window. The store is authoritative: a log that errors or
// is missing entries is bypassed in favour of the store's rows.
func (d *Detector) recentReactions(ctx context.Context, contentID string, since time.Time) ([]trend.ReactionEvent, error) {
	if d.reactionLog != nil {
		reactions, err := d.reactionLog.Since(ctx, contentID, since)
		if err != nil {
			d.log.Warn().Err(err).Str("content_id", contentID).Msg("reaction log unavailable, reading from store")
		} else {
			stored, err := d.content.CountReactionsSince(ctx, contentID, since)
			if err != nil {
				return nil, fmt.Errorf("error counting reactions for %s: %w", contentID, err)
			}
			if len(reactions) >= stored {
				return reactions, nil
			}
			d.log.Warn().
				Str("content_id", contentID).
				Int("logged", len(reactions)).
				Int("stored", stored).
				Msg("reaction log is behind the store, reading from store")
		}
	}

	reactions, err := d.content.ListReactionsSince(ctx, contentID, since)
	if err != nil {
		return nil, fmt.Errorf("error loading reactions for %s: %w", contentID, err)
	}
	return reactions, nil
}

// RegisterTrendHandler registers a callback invoked for every scored item
func (d *Detector) RegisterTrendHandler(handler func(trend.ScoredContent) error) error {
	if handler == nil {
		return fmt.Errorf("handler must not be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.trendHandlers = append(d.trendHandlers, handler)
	return nil
}

// callTrendHandlers calls all registered trend handlers
func (d *Detector) callTrendHandlers(scored []trend.ScoredContent) {
	d.mu.RLock()
	handlers := make([]func(trend.ScoredContent) error, len(d.trendHandlers))
	copy(handlers, d.trendHandlers)
	d.mu.RUnlock()

	for _, s := range scored {
		for _, handler := range handlers {
			if err := handler(s); err != nil {
				d.log.Error().Err(err).Str("content_id", s.ContentID).Msg("error in trend handler")
			}
		}
	}
}

// Stop gracefully stops the recompute loop
func (d *Detector) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	c := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		d.log.Info().Msg("trending detector stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
