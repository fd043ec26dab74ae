package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hottakes/internal/domain/trend"
)

// ReactionLog keeps recent reaction timestamps per content item in a Redis
// sorted set scored by unix milliseconds.
type ReactionLog struct {
	client    *redis.Client
	retention time.Duration
}

// NewReactionLog creates a reaction log. Entries older than retention are
// trimmed on every append.
func NewReactionLog(client *redis.Client, retention time.Duration) *ReactionLog {
	return &ReactionLog{client: client, retention: retention}
}

// NewClient creates a Redis client and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: password, DB: db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func reactionKey(contentID string) string {
	return "reactions:recent:" + contentID
}

// Append records a reaction at the given instant
func (l *ReactionLog) Append(ctx context.Context, contentID string, at time.Time) error {
	key := reactionKey(contentID)
	ms := at.UnixMilli()
	cutoff := at.Add(-l.retention).UnixMilli()

	pipe := l.client.TxPipeline()
	// Member must be unique so simultaneous reactions are not collapsed
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(ms), Member: strconv.FormatInt(ms, 10) + ":" + uuid.NewString()})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	pipe.Expire(ctx, key, l.retention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error appending reaction for %s: %w", contentID, err)
	}
	return nil
}

// Since returns reactions strictly after since
func (l *ReactionLog) Since(ctx context.Context, contentID string, since time.Time) ([]trend.ReactionEvent, error) {
	members, err := l.client.ZRangeByScoreWithScores(ctx, reactionKey(contentID), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading reactions for %s: %w", contentID, err)
	}

	events := make([]trend.ReactionEvent, 0, len(members))
	for _, m := range members {
		events = append(events, trend.ReactionEvent{Timestamp: time.UnixMilli(int64(m.Score))})
	}
	return events, nil
}
