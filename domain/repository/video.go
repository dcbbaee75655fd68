package repository

import (
	"context"
	"errors"
	"time"

	"creator-hub/domain/model"
)

var ErrVideoNotFound = errors.New("video not found")

// IVideo persists Video rows. Status transitions go through the dedicated
// Mark* methods so the posted_at invariant lives in one place.
type IVideo interface {
	GetByID(ctx context.Context, id string) (*model.Video, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*model.Video, error)

	// Upsert creates the row or updates its mutable content fields. Used by the
	// upload-complete callback for videos the engine reports before the
	// dashboard row exists.
	Upsert(ctx context.Context, v *model.Video) error

	// SetUploadResult records the processed media URLs without touching status.
	SetUploadResult(ctx context.Context, id string, contentURL, thumbnailURL *string) error

	// SetPlatformTarget records the destination platform only (push-trigger
	// marker: status intentionally stays draft).
	SetPlatformTarget(ctx context.Context, id, platform string) error

	// MarkScheduled moves the row to scheduled and resets posted_at/claimed_at.
	MarkScheduled(ctx context.Context, id, platform string, when time.Time) error

	// MarkPosted moves the row to posted with the given timestamp and platform
	// result URL.
	MarkPosted(ctx context.Context, id string, postedAt time.Time, platform string, resultURL *string) error

	// MarkFailed moves the row to failed. posted_at is left untouched.
	MarkFailed(ctx context.Context, id, errorMessage string) error

	// FetchPending returns scheduled rows due at or before the cutoff, oldest
	// first, including claimed rows whose claim is older than reclaimAfter.
	FetchPending(ctx context.Context, before time.Time, limit int, reclaimAfter time.Duration) ([]*model.Video, error)

	// Claim atomically moves a scheduled (or stale-claimed) row to claimed.
	// Returns false when another worker won the row.
	Claim(ctx context.Context, id string, now time.Time, reclaimAfter time.Duration) (bool, error)
}
