package model

import "time"

// Video statuses. draft is initial; posted and failed are both re-enterable
// (a failed post can be re-scheduled, producing a fresh cycle).
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusClaimed   = "claimed"
	StatusPosted    = "posted"
	StatusFailed    = "failed"
)

// Video is the unit of content being published.
type Video struct {
	ID             string     `json:"id"`
	CreatorID      string     `json:"creator_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ContentURL     *string    `json:"content_url,omitempty"`
	ThumbnailURL   *string    `json:"thumbnail_url,omitempty"`
	PlatformTarget string     `json:"platform_target"`
	Status         string     `json:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	YouTubeURL     *string    `json:"youtube_url,omitempty"`
	InstagramURL   *string    `json:"instagram_url,omitempty"`
	TikTokURL      *string    `json:"tiktok_url,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ResultURL returns the platform post URL matching the video's publish target.
func (v *Video) ResultURL() *string {
	switch v.PlatformTarget {
	case PlatformYouTube:
		return v.YouTubeURL
	case PlatformInstagram:
		return v.InstagramURL
	case PlatformTikTok:
		return v.TikTokURL
	}
	return nil
}
