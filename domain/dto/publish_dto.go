package dto

import "time"

// PublishRequest is the body of POST /api/videos/:videoId/publish.
// Mode is "now" or "schedule"; ScheduledAt is required for schedule mode.
type PublishRequest struct {
	Platform    string     `json:"platform" binding:"required"`
	Mode        string     `json:"mode"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PlatformStatus describes one connected platform for the acting creator.
type PlatformStatus struct {
	Platform  string     `json:"platform"`
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Handle    *string    `json:"handle,omitempty"`
	ChannelID *string    `json:"channel_id,omitempty"`
}
