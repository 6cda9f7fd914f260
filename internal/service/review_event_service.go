package service

import (
	"context"
	"encoding/json"

	"risk-review-be/internal/pkg/logger"
	"risk-review-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const ReviewEventsTopic = "review.events"

// EventBridge forwards events outside the process (NATS in production).
type EventBridge interface {
	Publish(ctx context.Context, event events.Event) error
}

type IReviewEventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// reviewEventPublisher never fails the operation that emitted the event;
// publishing problems are logged and dropped.
type reviewEventPublisher struct {
	pubSub message.Publisher
	bridge EventBridge
	logger logger.ILogger
}

func NewReviewEventPublisher(pubSub message.Publisher, bridge EventBridge, logger logger.ILogger) IReviewEventPublisher {
	return &reviewEventPublisher{
		pubSub: pubSub,
		bridge: bridge,
		logger: logger,
	}
}

func (p *reviewEventPublisher) Publish(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(events.BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		p.logger.Error("ReviewEvents", "Failed to marshal event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}

	if p.pubSub != nil {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := p.pubSub.Publish(ReviewEventsTopic, msg); err != nil {
			p.logger.Error("ReviewEvents", "Failed to publish event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}

	if p.bridge != nil {
		if err := p.bridge.Publish(ctx, event); err != nil {
			p.logger.Warn("ReviewEvents", "Failed to bridge event to NATS", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}
}

type IReviewAuditConsumer interface {
	Consume(ctx context.Context) error
}

// reviewAuditConsumer writes every review event to the isolated audit log.
type reviewAuditConsumer struct {
	subscriber message.Subscriber
	audit      logger.ILogger
}

func NewReviewAuditConsumer(subscriber message.Subscriber, audit logger.ILogger) IReviewAuditConsumer {
	return &reviewAuditConsumer{
		subscriber: subscriber,
		audit:      audit,
	}
}

func (c *reviewAuditConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, ReviewEventsTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(msg)
		}
	}()

	return nil
}

func (c *reviewAuditConsumer) processMessage(msg *message.Message) {
	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.audit.Error("ReviewEvents", "Dropping unreadable event", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Ack() // redelivery would fail the same way
		return
	}

	details := map[string]interface{}{"occurred_at": evt.OccurredAt}
	for k, v := range evt.Data {
		details[k] = v
	}
	c.audit.Info("ReviewEvents", evt.Type, details)
	msg.Ack()
}
