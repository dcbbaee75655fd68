package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
)

func newTokenUsecaseForTest(credentialRepository repository.ICredential, client repository.IPlatformClient, platform string, now time.Time) *TokenUsecase {
	u := NewTokenUsecase(credentialRepository, map[string]repository.IPlatformClient{platform: client}, noopTokenCache{})
	u.now = func() time.Time { return now }
	return u
}

func resolvedCredential(platform string, accessToken, refreshToken string, expiresAt *time.Time) *repository.ResolvedCredential {
	return &repository.ResolvedCredential{
		Credential: &model.Credential{
			CreatorID:    "42",
			Platform:     platform,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
		},
		Layout: repository.LayoutCurrent,
	}
}

func TestGetValidAccessToken_StoredTokenStillValid(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "stored", "rt", &expires), nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "stored", token.AccessToken)
	credentialRepository.AssertExpectations(t)
	credentialRepository.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "RefreshAccessToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_NearExpiryRefreshesAndPersistsOnce(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Minute) // inside the 5 minute buffer
	newExpires := now.Add(time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	rc := resolvedCredential("youtube", "stale", "rt", &expires)
	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").Return(rc, nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "rt").
		Return(&repository.RefreshedToken{AccessToken: "fresh", ExpiresAt: &newExpires}, nil).Once()
	credentialRepository.On("SaveToken", mock.Anything, rc).Return(nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, newExpires, *token.ExpiresAt)
	// the refresh token was not rotated, so the stored one survives
	assert.Equal(t, "rt", rc.Credential.RefreshToken)
	credentialRepository.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestGetValidAccessToken_RejectedGrantRequiresReconnection(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Minute)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "stale", "revoked", &expires), nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "revoked").
		Return(nil, repository.ErrRefreshRejected).Once()

	_, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	var unavailable *TokenUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, ReasonRequiresReconnection, unavailable.Reason)
	// rejection is terminal, no retry, and the stored row is left untouched
	client.AssertNumberOfCalls(t, "RefreshAccessToken", 1)
	credentialRepository.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_TransientFailureServesStoredToken(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Minute) // near expiry but not hard-expired
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "stored", "rt", &expires), nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "rt").
		Return(nil, errors.New("upstream 503")).Twice()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "stored", token.AccessToken)
	client.AssertExpectations(t)
	credentialRepository.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_TransientFailureHardExpired(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(-time.Minute)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "dead", "rt", &expires), nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "rt").
		Return(nil, errors.New("upstream 503")).Twice()

	_, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	var unavailable *TokenUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, ReasonTransient, unavailable.Reason)
}

func TestGetValidAccessToken_NotConnected(t *testing.T) {
	now := time.Now().UTC()
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(nil, repository.ErrCredentialNotFound).Once()

	_, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	var unavailable *TokenUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, ReasonNotConnected, unavailable.Reason)
}

func TestGetValidAccessToken_UnsupportedPlatform(t *testing.T) {
	u := NewTokenUsecase(new(mockCredentialRepository), nil, noopTokenCache{})
	_, err := u.GetValidAccessToken(context.Background(), "42", "myspace")
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestGetValidAccessToken_TikTokMissingExpiryIsValid(t *testing.T) {
	now := time.Now().UTC()
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "tiktok", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "tiktok").
		Return(resolvedCredential("tiktok", "non-expiring", "rt", nil), nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "tiktok")
	require.NoError(t, err)
	assert.Equal(t, "non-expiring", token.AccessToken)
	client.AssertNotCalled(t, "RefreshAccessToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_YouTubeMissingExpiryTriggersRefresh(t *testing.T) {
	now := time.Now().UTC()
	newExpires := now.Add(time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	rc := resolvedCredential("youtube", "unknown-age", "rt", nil)
	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").Return(rc, nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "rt").
		Return(&repository.RefreshedToken{AccessToken: "fresh", ExpiresAt: &newExpires}, nil).Once()
	credentialRepository.On("SaveToken", mock.Anything, rc).Return(nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
}

func TestGetValidAccessToken_InstagramRefreshesInsideSevenDayWindow(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(3 * 24 * time.Hour) // 3 days out, inside the 7 day window
	newExpires := now.Add(60 * 24 * time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "instagram", now)

	rc := resolvedCredential("instagram", "long-lived", "", &expires)
	credentialRepository.On("Resolve", mock.Anything, "42", "instagram").Return(rc, nil).Once()
	// Instagram refreshes on the access token itself, not a separate grant.
	client.On("RefreshAccessToken", mock.Anything, "long-lived").
		Return(&repository.RefreshedToken{AccessToken: "extended", ExpiresAt: &newExpires}, nil).Once()
	credentialRepository.On("SaveToken", mock.Anything, rc).Return(nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "instagram")
	require.NoError(t, err)
	assert.Equal(t, "extended", token.AccessToken)
	client.AssertExpectations(t)
}

func TestGetValidAccessToken_InstagramOutsideWindowNotRefreshed(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(30 * 24 * time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "instagram", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "instagram").
		Return(resolvedCredential("instagram", "long-lived", "", &expires), nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "instagram")
	require.NoError(t, err)
	assert.Equal(t, "long-lived", token.AccessToken)
	client.AssertNotCalled(t, "RefreshAccessToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_NoGrantStaleTokenStillServed(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Minute)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "stored", "", &expires), nil).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "stored", token.AccessToken)
	client.AssertNotCalled(t, "RefreshAccessToken", mock.Anything, mock.Anything)
}

func TestGetValidAccessToken_NoGrantHardExpiredRequiresReconnection(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(-time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").
		Return(resolvedCredential("youtube", "dead", "", &expires), nil).Once()

	_, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	var unavailable *TokenUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, ReasonRequiresReconnection, unavailable.Reason)
}

func TestGetValidAccessToken_SaveFailureStillReturnsFreshToken(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Minute)
	newExpires := now.Add(time.Hour)
	credentialRepository := new(mockCredentialRepository)
	client := new(mockPlatformClient)
	u := newTokenUsecaseForTest(credentialRepository, client, "youtube", now)

	rc := resolvedCredential("youtube", "stale", "rt", &expires)
	credentialRepository.On("Resolve", mock.Anything, "42", "youtube").Return(rc, nil).Once()
	client.On("RefreshAccessToken", mock.Anything, "rt").
		Return(&repository.RefreshedToken{AccessToken: "fresh", RefreshToken: "rt2", ExpiresAt: &newExpires}, nil).Once()
	credentialRepository.On("SaveToken", mock.Anything, rc).Return(errors.New("write timeout")).Once()

	token, err := u.GetValidAccessToken(context.Background(), "42", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	// rotated refresh token is kept in memory even though the write failed
	assert.Equal(t, "rt2", rc.Credential.RefreshToken)
}
