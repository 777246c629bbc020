// Package events publishes aggregation outcomes to Kafka.
package events

import (
	"context"
	"time"
)

// AggregationCompleted describes one finished aggregation request.
type AggregationCompleted struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Mode         string    `json:"mode"`
	Moments      int       `json:"moments"`
	Included     int       `json:"included"`
	Excluded     []string  `json:"excluded,omitempty"`
	Skipped      int       `json:"skipped"`
	Rejected     int       `json:"rejected"`
	Measures     []string  `json:"measures"`
	PureDuration float64   `json:"pure_duration"`
	PreDuration  float64   `json:"pre_duration,omitempty"`
	PostExtra    float64   `json:"post_extra,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Publisher delivers aggregation events.
type Publisher interface {
	Publish(ctx context.Context, ev AggregationCompleted) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, AggregationCompleted) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
