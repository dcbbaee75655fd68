package model

import "time"

// Platform identifiers for publish targets. "internal" is the in-app feed and
// never carries a Credential.
const (
	PlatformInternal  = "internal"
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// ConnectablePlatforms lists the platforms a creator can link an account for.
var ConnectablePlatforms = []string{PlatformYouTube, PlatformInstagram, PlatformTikTok}

// IsConnectablePlatform reports whether p is a platform that stores OAuth credentials.
func IsConnectablePlatform(p string) bool {
	for _, s := range ConnectablePlatforms {
		if p == s {
			return true
		}
	}
	return false
}

// IsPublishTarget reports whether p is a valid publish destination (including internal).
func IsPublishTarget(p string) bool {
	return p == PlatformInternal || IsConnectablePlatform(p)
}

// Credential stores the OAuth material for one creator on one platform.
// ExpiresAt is nil when the platform did not report an expiry; the token
// lifecycle manager interprets that per platform.
type Credential struct {
	ID           int64      `json:"id"`
	CreatorID    string     `json:"creator_id"`
	Platform     string     `json:"platform"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`

	// Platform identity fields. Descriptive only; never used for authorization.
	ChannelID         *string `json:"channel_id,omitempty"`
	Handle            *string `json:"handle,omitempty"`
	BusinessAccountID *string `json:"business_account_id,omitempty"`
	Username          *string `json:"username,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
