package usecase

import (
	"context"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	"creator-hub/infrastructure/logger"
)

const (
	// expiryBuffer keeps us from handing out a token that dies mid-upload.
	expiryBuffer = 5 * time.Minute

	// instagramRefreshWindow: Instagram long-lived tokens are refreshed well
	// ahead of their 60-day horizon, since a lapsed token cannot be refreshed
	// at all and forces a reconnect.
	instagramRefreshWindow = 7 * 24 * time.Hour

	refreshTimeout = 5 * time.Second
)

// TokenResult is a usable access token plus its validity horizon.
type TokenResult struct {
	AccessToken string
	ExpiresAt   *time.Time
}

type ITokenUsecase interface {
	GetValidAccessToken(ctx context.Context, creatorID, platform string) (*TokenResult, error)
}

// TokenUsecase produces valid access tokens on demand, refreshing stored
// credentials inline when they are near expiry. Each call performs at most
// one credential write.
type TokenUsecase struct {
	credentialRepository repository.ICredential
	platformClients      map[string]repository.IPlatformClient
	tokenCache           cache.ITokenCache
	now                  func() time.Time
}

func NewTokenUsecase(credentialRepository repository.ICredential, platformClients map[string]repository.IPlatformClient, tokenCache cache.ITokenCache) *TokenUsecase {
	return &TokenUsecase{
		credentialRepository: credentialRepository,
		platformClients:      platformClients,
		tokenCache:           tokenCache,
		now:                  time.Now,
	}
}

func (u *TokenUsecase) GetValidAccessToken(ctx context.Context, creatorID, platform string) (*TokenResult, error) {
	if !model.IsConnectablePlatform(platform) {
		return nil, ErrUnsupportedPlatform
	}

	if cached, ok := u.tokenCache.Get(ctx, creatorID, platform); ok {
		if !u.nearExpiry(platform, cached.ExpiresAt) {
			return &TokenResult{AccessToken: cached.AccessToken, ExpiresAt: cached.ExpiresAt}, nil
		}
	}

	resolved, err := u.credentialRepository.Resolve(ctx, creatorID, platform)
	if err != nil {
		if err == repository.ErrCredentialNotFound {
			return nil, &TokenUnavailableError{Platform: platform, Reason: ReasonNotConnected}
		}
		logger.GetLogger().WithField("error", err).Error("credential resolve failed")
		return nil, &TokenUnavailableError{Platform: platform, Reason: ReasonTransient}
	}
	cred := resolved.Credential

	if !u.nearExpiry(platform, cred.ExpiresAt) {
		u.tokenCache.Put(ctx, creatorID, platform, cache.CachedToken{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt})
		return &TokenResult{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt}, nil
	}

	grant := u.refreshGrant(platform, cred)
	if grant == "" {
		// Nothing to refresh with; the stored token may still limp along.
		if !u.hardExpired(cred.ExpiresAt) {
			return &TokenResult{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt}, nil
		}
		return nil, &TokenUnavailableError{Platform: platform, Reason: ReasonRequiresReconnection}
	}

	refreshed, err := u.refreshWithRetry(ctx, platform, grant)
	if err == repository.ErrRefreshRejected {
		// The stored row stays untouched so support can inspect it; only the
		// cache entry is dropped.
		u.tokenCache.Invalidate(ctx, creatorID, platform)
		logger.GetLogger().WithFields(map[string]interface{}{
			"creator_id": creatorID,
			"platform":   platform,
		}).Warn("refresh grant rejected; creator must reconnect")
		return nil, &TokenUnavailableError{Platform: platform, Reason: ReasonRequiresReconnection}
	}
	if err != nil {
		if !u.hardExpired(cred.ExpiresAt) {
			logger.GetLogger().WithFields(map[string]interface{}{
				"creator_id": creatorID,
				"platform":   platform,
				"error":      err,
			}).Warn("refresh failed; serving stored token")
			return &TokenResult{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt}, nil
		}
		return nil, &TokenUnavailableError{Platform: platform, Reason: ReasonTransient}
	}

	cred.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		cred.RefreshToken = refreshed.RefreshToken
	}
	cred.ExpiresAt = refreshed.ExpiresAt

	// Persisting is best-effort: the refreshed token is returned even when
	// the write fails, the next call simply refreshes again.
	if err := u.credentialRepository.SaveToken(ctx, resolved); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"creator_id": creatorID,
			"platform":   platform,
			"error":      err,
		}).Warn("persisting refreshed token failed")
	}
	u.tokenCache.Put(ctx, creatorID, platform, cache.CachedToken{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt})
	return &TokenResult{AccessToken: cred.AccessToken, ExpiresAt: cred.ExpiresAt}, nil
}

// refreshGrant picks the credential field the platform's refresh call wants.
// Instagram has no separate refresh grant; its access token refreshes itself.
func (u *TokenUsecase) refreshGrant(platform string, cred *model.Credential) string {
	if platform == model.PlatformInstagram {
		if cred.RefreshToken != "" {
			return cred.RefreshToken
		}
		return cred.AccessToken
	}
	return cred.RefreshToken
}

// refreshWithRetry makes one inline retry on transient failure. Rejection of
// the grant itself is terminal and never retried.
func (u *TokenUsecase) refreshWithRetry(ctx context.Context, platform, grant string) (*repository.RefreshedToken, error) {
	client, ok := u.platformClients[platform]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		refreshed, err := client.RefreshAccessToken(attemptCtx, grant)
		cancel()
		if err == nil {
			return refreshed, nil
		}
		if err == repository.ErrRefreshRejected {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// nearExpiry implements the per-platform validity horizons. A missing
// expires_at means "unknown, assume stale" for platforms that expire tokens,
// and "does not expire" for TikTok.
func (u *TokenUsecase) nearExpiry(platform string, expiresAt *time.Time) bool {
	now := u.now()
	switch platform {
	case model.PlatformTikTok:
		if expiresAt == nil {
			return false
		}
		return now.After(expiresAt.Add(-expiryBuffer))
	case model.PlatformInstagram:
		if expiresAt == nil {
			return true
		}
		return now.After(expiresAt.Add(-instagramRefreshWindow))
	default:
		if expiresAt == nil {
			return true
		}
		return now.After(expiresAt.Add(-expiryBuffer))
	}
}

func (u *TokenUsecase) hardExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !u.now().Before(*expiresAt)
}
