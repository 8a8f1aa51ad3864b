// Package activity carries workflow step events from the engine to whoever
// wants to observe a request's progress. The engine treats the sink as
// fire-and-forget; a failing or absent sink never affects the answer.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Event is one observable workflow step.
type Event struct {
	ThreadID  string                 `json:"thread_id"`
	Node      string                 `json:"node"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Sink receives workflow activity events.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// NopSink swallows every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }

// WatermillSink publishes events to a watermill topic.
type WatermillSink struct {
	topic     string
	publisher message.Publisher
}

var _ Sink = &WatermillSink{}

func NewWatermillSink(topic string, publisher message.Publisher) *WatermillSink {
	return &WatermillSink{topic: topic, publisher: publisher}
}

func (s *WatermillSink) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.publisher.Publish(s.topic, msg)
}
