package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// NewPubSub creates the Google Pub/Sub client. Callers tolerate a nil client;
// lifecycle events are then simply not mirrored.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}
