package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	"creator-hub/interfaces/middleware"
)

type mockCredentialRepository struct{ mock.Mock }

func (m *mockCredentialRepository) Resolve(ctx context.Context, creatorID, platform string) (*repository.ResolvedCredential, error) {
	args := m.Called(ctx, creatorID, platform)
	if rc, ok := args.Get(0).(*repository.ResolvedCredential); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialRepository) SaveToken(ctx context.Context, rc *repository.ResolvedCredential) error {
	return m.Called(ctx, rc).Error(0)
}

func (m *mockCredentialRepository) Upsert(ctx context.Context, cred *model.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *mockCredentialRepository) Delete(ctx context.Context, creatorID, platform string) error {
	return m.Called(ctx, creatorID, platform).Error(0)
}

func (m *mockCredentialRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Credential, error) {
	args := m.Called(ctx, creatorID)
	if creds, ok := args.Get(0).([]*model.Credential); ok {
		return creds, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTokenCache struct{ mock.Mock }

func (m *mockTokenCache) Get(ctx context.Context, creatorID, platform string) (*cache.CachedToken, bool) {
	args := m.Called(ctx, creatorID, platform)
	if token, ok := args.Get(0).(*cache.CachedToken); ok {
		return token, args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *mockTokenCache) Put(ctx context.Context, creatorID, platform string, token cache.CachedToken) {
	m.Called(ctx, creatorID, platform, token)
}

func (m *mockTokenCache) Invalidate(ctx context.Context, creatorID, platform string) {
	m.Called(ctx, creatorID, platform)
}

func platformAuthRouter(credentialRepository repository.ICredential, tokenCache cache.ITokenCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPlatformAuthHandler(map[string]repository.IPlatformClient{}, credentialRepository, tokenCache, middleware.AuthPermissive)
	router := gin.New()
	router.DELETE("/platforms/:platform", handler.Disconnect)
	return router
}

func TestDisconnect_InvalidatesCachedToken(t *testing.T) {
	credentialRepository := new(mockCredentialRepository)
	tokenCache := new(mockTokenCache)
	router := platformAuthRouter(credentialRepository, tokenCache)

	credentialRepository.On("Delete", mock.Anything, "demo-user", model.PlatformYouTube).Return(nil).Once()
	tokenCache.On("Invalidate", mock.Anything, "demo-user", model.PlatformYouTube).Once()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/platforms/youtube", nil)
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	credentialRepository.AssertExpectations(t)
	tokenCache.AssertExpectations(t)
}

func TestDisconnect_FailedDeleteKeepsCache(t *testing.T) {
	credentialRepository := new(mockCredentialRepository)
	tokenCache := new(mockTokenCache)
	router := platformAuthRouter(credentialRepository, tokenCache)

	credentialRepository.On("Delete", mock.Anything, "demo-user", model.PlatformTikTok).
		Return(assert.AnError).Once()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/platforms/tiktok", nil)
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	tokenCache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisconnect_UnsupportedPlatform(t *testing.T) {
	credentialRepository := new(mockCredentialRepository)
	router := platformAuthRouter(credentialRepository, new(mockTokenCache))

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/platforms/myspace", nil)
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	credentialRepository.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
