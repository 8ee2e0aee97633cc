// Package eventbus publishes domain events (message sent, conversation
// created, deal updated, ...) to an external stream for downstream
// consumers such as analytics or search indexing.
//
// Publishing is best effort: callers log failures and never fail the
// mutation that produced the event.
package eventbus

import (
	"context"
	"time"
)

// Event is one domain fact. AggregateID is used as the partition key so all
// events of one conversation (or deal, property) stay ordered.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}

// Publisher sends events to the stream.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

var _ Publisher = NoopPublisher{}
