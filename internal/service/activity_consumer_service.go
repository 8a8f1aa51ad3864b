package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/activity"
	"ai-docqa-be/pkg/events"
	natspub "ai-docqa-be/pkg/nats"
)

type IActivityConsumerService interface {
	Consume(ctx context.Context) error
}

// activityConsumerService drains workflow step events off the in-process bus,
// writes them to the structured log and optionally forwards them to JetStream
// for external observers.
type activityConsumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	forwarder *natspub.Publisher // nil when NATS is not configured
	logger    logger.ILogger
}

func NewActivityConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	forwarder *natspub.Publisher,
	log logger.ILogger,
) IActivityConsumerService {
	return &activityConsumerService{
		pubSub:    pubSub,
		topicName: topicName,
		forwarder: forwarder,
		logger:    log,
	}
}

func (cs *activityConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *activityConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event activity.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal activity event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ACTIVITY", "workflow step", map[string]interface{}{
		"thread_id": event.ThreadID,
		"node":      event.Node,
		"message":   event.Message,
		"details":   event.Details,
	})

	if cs.forwarder != nil {
		forward := events.WorkflowActivityEvent{
			ThreadID:   event.ThreadID,
			Node:       event.Node,
			Message:    event.Message,
			Details:    event.Details,
			OccurredAt: event.Timestamp,
		}
		if err := cs.forwarder.Publish(ctx, forward); err != nil {
			cs.logger.Warn("ACTIVITY", "jetstream forward failed", map[string]interface{}{
				"thread_id": event.ThreadID,
				"error":     err.Error(),
			})
		}
	}

	msg.Ack()
}
