package repository

import (
	"context"

	"creator-hub/domain/dto"
)

// IAutomationEngine is the outbound side of the automation bridge: a single
// webhook POST per immediate-publish request. The engine itself is a black box
// that reports back through the callback endpoints.
type IAutomationEngine interface {
	TriggerImmediatePost(ctx context.Context, trigger *dto.ImmediateTrigger) error
}

// CallbackAuditEntry is an append-only record of an inbound engine callback.
type CallbackAuditEntry struct {
	VideoID   string                 `bson:"video_id"`
	Kind      string                 `bson:"kind"`
	Payload   map[string]interface{} `bson:"payload,omitempty"`
	Duplicate bool                   `bson:"duplicate"`
}

// ICallbackAudit records engine callbacks for debugging duplicate and
// out-of-order deliveries. Writes are best-effort.
type ICallbackAudit interface {
	Append(ctx context.Context, entry CallbackAuditEntry) error
}
