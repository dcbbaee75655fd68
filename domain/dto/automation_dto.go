package dto

import (
	"time"

	"creator-hub/domain/model"
)

// PendingPost is one row of the pull feed consumed by the automation engine.
type PendingPost struct {
	VideoID      string    `json:"video_id"`
	CreatorID    string    `json:"creator_id"`
	Platform     string    `json:"platform"`
	ContentURL   string    `json:"content_url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	IsImmediate  bool      `json:"is_immediate"`
}

type PendingPostsResponse struct {
	Posts []*PendingPost `json:"posts"`
}

// PlatformTokens is the token bundle handed to the engine. It mirrors what the
// platform API expects and never includes the refresh token for platforms that
// do not need it engine-side.
type PlatformTokens struct {
	AccessToken       string     `json:"access_token"`
	RefreshToken      string     `json:"refresh_token,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ChannelID         *string    `json:"channel_id,omitempty"`
	BusinessAccountID *string    `json:"business_account_id,omitempty"`
	Username          *string    `json:"username,omitempty"`
}

type PostNowRequest struct {
	VideoID  string `json:"video_id" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

type PostNowResponse struct {
	Video          *model.Video    `json:"video"`
	PlatformTokens *PlatformTokens `json:"platform_tokens"`
	Platform       string          `json:"platform"`
	HasTokens      bool            `json:"has_tokens"`
}

type RefreshTokenRequest struct {
	Platform  string `json:"platform" binding:"required"`
	CreatorID string `json:"creator_id" binding:"required"`
}

type RefreshTokenResponse struct {
	AccessToken          string     `json:"access_token"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	RequiresReconnection bool       `json:"requires_reconnection"`
}

// UploadCompleteRequest is the callback sent by the engine when the media
// pipeline finishes. CreatorID is optional context used to create a minimal
// record when the video row does not exist yet.
type UploadCompleteRequest struct {
	VideoID          string  `json:"video_id" binding:"required"`
	VideoURL         *string `json:"video_url,omitempty"`
	ThumbnailURL     *string `json:"thumbnail_url,omitempty"`
	ProcessingStatus string  `json:"processing_status" binding:"required"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	CreatorID        string  `json:"creator_id,omitempty"`
	Title            string  `json:"title,omitempty"`
}

type UploadCompleteResponse struct {
	Success          bool    `json:"success"`
	VideoID          string  `json:"video_id"`
	VideoURL         *string `json:"video_url,omitempty"`
	Status           string  `json:"status"`
	ProcessingStatus string  `json:"processing_status"`
}

// PostStatusRequest is the callback reporting the outcome of a platform post.
type PostStatusRequest struct {
	VideoID         string     `json:"video_id" binding:"required"`
	Status          string     `json:"status" binding:"required"`
	Platform        string     `json:"platform,omitempty"`
	PlatformPostURL *string    `json:"platform_post_url,omitempty"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}

// ImmediateTrigger is the outbound webhook body for a push-dispatched post.
type ImmediateTrigger struct {
	VideoID      string  `json:"video_id"`
	CreatorID    string  `json:"creator_id"`
	Platform     string  `json:"platform"`
	TriggerType  string  `json:"trigger_type"`
	ContentURL   string  `json:"content_url"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	CallbackURL  string  `json:"callback_url"`
}
