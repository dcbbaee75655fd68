package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"

	"creator-hub/infrastructure/logger"
)

// LifecycleEvent is the message published whenever a video moves through the
// publish state machine. Downstream analytics consume these.
type LifecycleEvent struct {
	VideoID    string    `json:"video_id"`
	CreatorID  string    `json:"creator_id"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ILifecyclePublisher interface {
	PublishLifecycle(ctx context.Context, event LifecycleEvent) (string, error)
}

type LifecyclePublisher struct {
	PubSubClient *pubsub.Client
	Topic        string
}

func NewLifecyclePublisher(pubSubClient *pubsub.Client, topic string) ILifecyclePublisher {
	return &LifecyclePublisher{
		PubSubClient: pubSubClient,
		Topic:        topic,
	}
}

func (p *LifecyclePublisher) PublishLifecycle(ctx context.Context, event LifecycleEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	topic := p.PubSubClient.Topic(p.Topic)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.Topic).Info("Topic doesn't exist - creating it")
		if _, err = p.PubSubClient.CreateTopic(ctx, p.Topic); err != nil {
			return "", err
		}
		topic = p.PubSubClient.Topic(p.Topic)
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"server ID": serverId,
		"video_id":  event.VideoID,
		"status":    event.Status,
	}).Info("Lifecycle event published")
	return serverId, nil
}
