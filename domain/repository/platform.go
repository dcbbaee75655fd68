package repository

import (
	"context"
	"errors"
	"time"
)

// ErrRefreshRejected signals that the platform rejected the refresh grant
// itself (revoked or expired). The creator must reconnect; retrying is
// pointless. Any other refresh error is treated as transient.
var ErrRefreshRejected = errors.New("refresh token rejected by platform")

// RefreshedToken is the result of a platform refresh call. RefreshToken is
// empty when the platform did not rotate it.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// PlatformIdentity holds the descriptive account fields returned by the
// platform during the connect flow.
type PlatformIdentity struct {
	ChannelID         *string
	Handle            *string
	BusinessAccountID *string
	Username          *string
}

// ExchangedToken is the result of the initial code exchange.
type ExchangedToken struct {
	RefreshedToken
	Identity PlatformIdentity
	Scopes   string
}

// IPlatformClient is one platform's OAuth surface: the three-legged connect
// flow plus token refresh.
type IPlatformClient interface {
	Platform() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExchangedToken, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshedToken, error)
}
