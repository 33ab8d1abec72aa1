package events

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// PubSubPublisher mirrors events to a Cloud Pub/Sub topic for downstream
// consumers such as reporting.
type PubSubPublisher struct {
	pub topicPublisher
}

func NewPubSubPublisher(pub topicPublisher) *PubSubPublisher {
	return &PubSubPublisher{pub: pub}
}

func (p *PubSubPublisher) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("pubsub publisher not configured")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	result := p.pub.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   evt.ID,
			"event_type": evt.Type,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub publish %s: %w", evt.Type, err)
	}
	return nil
}
