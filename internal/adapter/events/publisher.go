// internal/adapter/events/publisher.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hottakes/internal/domain/trend"
)

// ScoreUpdatedEvent is the payload published for every rescored content item
type ScoreUpdatedEvent struct {
	ContentID  string      `json:"contentId"`
	Score      float64     `json:"score"`
	Velocity   float64     `json:"velocity"`
	Label      trend.Label `json:"label"`
	IsTrending bool        `json:"isTrending"`
	ComputedAt time.Time   `json:"computedAt"`
}

// Conn is the subset of *nats.Conn used for publishing
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher publishes trending score updates to NATS
type Publisher struct {
	conn  Conn
	topic string
}

// NewPublisher creates a new publisher on the given topic prefix
func NewPublisher(conn Conn, topic string) *Publisher {
	return &Publisher{conn: conn, topic: topic}
}

// UpdatedSubject returns the subject score updates are published on
func UpdatedSubject(topic string) string {
	return fmt.Sprintf("%s.updated", topic)
}

// PublishScores publishes one message per scored item
func (p *Publisher) PublishScores(_ context.Context, scores []trend.ScoredContent) error {
	subject := UpdatedSubject(p.topic)

	for _, s := range scores {
		data, err := json.Marshal(ScoreUpdatedEvent{
			ContentID:  s.ContentID,
			Score:      s.Score.Score,
			Velocity:   s.Score.Velocity,
			Label:      s.Score.Label,
			IsTrending: s.Score.IsTrending,
			ComputedAt: s.ComputedAt,
		})
		if err != nil {
			return fmt.Errorf("error marshaling score for %s: %w", s.ContentID, err)
		}

		if err := p.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("error publishing score for %s: %w", s.ContentID, err)
		}
	}

	return nil
}
