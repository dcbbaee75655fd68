package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

// CallbackAuditRepository keeps a trail of every callback the automation
// engine delivers. The trail is diagnostic only; a nil Mongo client turns
// Append into a no-op and a failed write never fails the callback.
type CallbackAuditRepository struct {
	mongoDb *mongo.Client
}

func NewCallbackAuditRepository(db *mongo.Client) repository.ICallbackAudit {
	return &CallbackAuditRepository{mongoDb: db}
}

func (r *CallbackAuditRepository) Append(ctx context.Context, entry repository.CallbackAuditEntry) error {
	if r.mongoDb == nil {
		return nil
	}
	doc := bson.M{
		"video_id":    entry.VideoID,
		"kind":        entry.Kind,
		"payload":     entry.Payload,
		"duplicate":   entry.Duplicate,
		"received_at": time.Now().UTC(),
	}
	collection := r.mongoDb.Database("creator_hub").Collection("callback_audit")
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"video_id": entry.VideoID,
			"kind":     entry.Kind,
		}).Warn("callback audit write failed")
		return err
	}
	return nil
}
