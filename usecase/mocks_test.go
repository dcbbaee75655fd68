package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
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
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *mockCredentialRepository) Upsert(ctx context.Context, cred *model.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *mockCredentialRepository) Delete(ctx context.Context, creatorID, platform string) error {
	args := m.Called(ctx, creatorID, platform)
	return args.Error(0)
}

func (m *mockCredentialRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Credential, error) {
	args := m.Called(ctx, creatorID)
	if creds, ok := args.Get(0).([]*model.Credential); ok {
		return creds, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPlatformClient struct {
	mock.Mock
	platform string
}

func (m *mockPlatformClient) Platform() string { return m.platform }

func (m *mockPlatformClient) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *mockPlatformClient) Exchange(ctx context.Context, code string) (*repository.ExchangedToken, error) {
	args := m.Called(ctx, code)
	if token, ok := args.Get(0).(*repository.ExchangedToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlatformClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*repository.RefreshedToken, error) {
	args := m.Called(ctx, refreshToken)
	if token, ok := args.Get(0).(*repository.RefreshedToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVideoRepository struct{ mock.Mock }

func (m *mockVideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.Video); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVideoRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Video, error) {
	args := m.Called(ctx, creatorID)
	if vs, ok := args.Get(0).([]*model.Video); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVideoRepository) Upsert(ctx context.Context, v *model.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVideoRepository) SetUploadResult(ctx context.Context, id string, contentURL, thumbnailURL *string) error {
	args := m.Called(ctx, id, contentURL, thumbnailURL)
	return args.Error(0)
}

func (m *mockVideoRepository) SetPlatformTarget(ctx context.Context, id, platform string) error {
	args := m.Called(ctx, id, platform)
	return args.Error(0)
}

func (m *mockVideoRepository) MarkScheduled(ctx context.Context, id, platform string, when time.Time) error {
	args := m.Called(ctx, id, platform, when)
	return args.Error(0)
}

func (m *mockVideoRepository) MarkPosted(ctx context.Context, id string, postedAt time.Time, platform string, resultURL *string) error {
	args := m.Called(ctx, id, postedAt, platform, resultURL)
	return args.Error(0)
}

func (m *mockVideoRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

func (m *mockVideoRepository) FetchPending(ctx context.Context, before time.Time, limit int, reclaimAfter time.Duration) ([]*model.Video, error) {
	args := m.Called(ctx, before, limit, reclaimAfter)
	if vs, ok := args.Get(0).([]*model.Video); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVideoRepository) Claim(ctx context.Context, id string, now time.Time, reclaimAfter time.Duration) (bool, error) {
	args := m.Called(ctx, id, now, reclaimAfter)
	return args.Bool(0), args.Error(1)
}

type mockAutomationEngine struct{ mock.Mock }

func (m *mockAutomationEngine) TriggerImmediatePost(ctx context.Context, trigger *dto.ImmediateTrigger) error {
	args := m.Called(ctx, trigger)
	return args.Error(0)
}

type mockTokenUsecase struct{ mock.Mock }

func (m *mockTokenUsecase) GetValidAccessToken(ctx context.Context, creatorID, platform string) (*TokenResult, error) {
	args := m.Called(ctx, creatorID, platform)
	if token, ok := args.Get(0).(*TokenResult); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublishUsecase struct{ mock.Mock }

func (m *mockPublishUsecase) RequestPublish(ctx context.Context, identity RequestIdentity, videoID string, req *dto.PublishRequest) (*model.Video, error) {
	args := m.Called(ctx, identity, videoID, req)
	if v, ok := args.Get(0).(*model.Video); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPublishUsecase) ApplyPostResult(ctx context.Context, videoID string, outcome PostOutcome) (*model.Video, bool, error) {
	args := m.Called(ctx, videoID, outcome)
	if v, ok := args.Get(0).(*model.Video); ok {
		return v, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockPublishUsecase) GetVideo(ctx context.Context, identity RequestIdentity, videoID string) (*model.Video, error) {
	args := m.Called(ctx, identity, videoID)
	if v, ok := args.Get(0).(*model.Video); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPublishUsecase) ListVideos(ctx context.Context, identity RequestIdentity) ([]*model.Video, error) {
	args := m.Called(ctx, identity)
	if vs, ok := args.Get(0).([]*model.Video); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCallbackAudit struct{ mock.Mock }

func (m *mockCallbackAudit) Append(ctx context.Context, entry repository.CallbackAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// noopTokenCache stands in for Redis in tests: always a miss, writes dropped.
type noopTokenCache struct{}

func (noopTokenCache) Get(ctx context.Context, creatorID, platform string) (*cache.CachedToken, bool) {
	return nil, false
}
func (noopTokenCache) Put(ctx context.Context, creatorID, platform string, token cache.CachedToken) {
}
func (noopTokenCache) Invalidate(ctx context.Context, creatorID, platform string) {}
