package usecase

import (
	"context"
	"time"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

// claimVisibilityTimeout is how long a claimed row stays invisible to
// subsequent polls before it is considered abandoned and re-enters the feed.
const claimVisibilityTimeout = 10 * time.Minute

const defaultPendingLimit = 50

type IAutomationUsecase interface {
	EnumeratePendingPosts(ctx context.Context, before time.Time, limit int, claim bool) (*dto.PendingPostsResponse, error)
	ResolvePostNow(ctx context.Context, req *dto.PostNowRequest) (*dto.PostNowResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error)
	ReportUploadComplete(ctx context.Context, req *dto.UploadCompleteRequest) (*dto.UploadCompleteResponse, error)
	ReportPostStatus(ctx context.Context, req *dto.PostStatusRequest) (*model.Video, bool, error)
}

// AutomationUsecase is the protocol surface for the external workflow engine:
// the pull feed of due posts, on-demand credential resolution, and the two
// inbound callbacks.
type AutomationUsecase struct {
	videoRepository      repository.IVideo
	credentialRepository repository.ICredential
	tokenUsecase         ITokenUsecase
	publishUsecase       IPublishUsecase
	callbackAudit        repository.ICallbackAudit
	now                  func() time.Time
}

func NewAutomationUsecase(
	videoRepository repository.IVideo,
	credentialRepository repository.ICredential,
	tokenUsecase ITokenUsecase,
	publishUsecase IPublishUsecase,
	callbackAudit repository.ICallbackAudit,
) *AutomationUsecase {
	return &AutomationUsecase{
		videoRepository:      videoRepository,
		credentialRepository: credentialRepository,
		tokenUsecase:         tokenUsecase,
		publishUsecase:       publishUsecase,
		callbackAudit:        callbackAudit,
		now:                  time.Now,
	}
}

// EnumeratePendingPosts returns scheduled videos whose time has come, oldest
// first. The call itself never locks anything; engines that want at-most-once
// delivery opt into claiming, which makes each row invisible to other pollers
// for the visibility timeout.
func (u *AutomationUsecase) EnumeratePendingPosts(ctx context.Context, before time.Time, limit int, claim bool) (*dto.PendingPostsResponse, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	now := u.now().UTC()
	videos, err := u.videoRepository.FetchPending(ctx, before, limit, claimVisibilityTimeout)
	if err != nil {
		return nil, err
	}

	out := &dto.PendingPostsResponse{Posts: []*dto.PendingPost{}}
	for _, video := range videos {
		// A scheduled video whose upload never finished is not actionable;
		// leave it in the feed until its content shows up.
		if video.ContentURL == nil || video.ScheduledAt == nil {
			continue
		}
		if claim {
			claimed, err := u.videoRepository.Claim(ctx, video.ID, now, claimVisibilityTimeout)
			if err != nil {
				return nil, err
			}
			if !claimed {
				continue
			}
		}
		out.Posts = append(out.Posts, &dto.PendingPost{
			VideoID:      video.ID,
			CreatorID:    video.CreatorID,
			Platform:     video.PlatformTarget,
			ContentURL:   *video.ContentURL,
			Title:        video.Title,
			Description:  video.Description,
			ThumbnailURL: video.ThumbnailURL,
			ScheduledAt:  video.ScheduledAt.UTC(),
			IsImmediate:  !video.ScheduledAt.After(now),
		})
	}
	return out, nil
}

// ResolvePostNow hands the engine everything it needs to perform one post:
// the video and a platform-shaped token bundle. Nothing is persisted here.
func (u *AutomationUsecase) ResolvePostNow(ctx context.Context, req *dto.PostNowRequest) (*dto.PostNowResponse, error) {
	video, err := u.videoRepository.GetByID(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	platform := req.Platform
	if platform == "" {
		platform = video.PlatformTarget
	}

	token, err := u.tokenUsecase.GetValidAccessToken(ctx, video.CreatorID, platform)
	if err != nil {
		return nil, err
	}

	tokens := &dto.PlatformTokens{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}
	if resolved, err := u.credentialRepository.Resolve(ctx, video.CreatorID, platform); err == nil {
		cred := resolved.Credential
		tokens.ChannelID = cred.ChannelID
		tokens.BusinessAccountID = cred.BusinessAccountID
		tokens.Username = cred.Username
		// Only YouTube posting runs long enough engine-side to need its own
		// refresh capability.
		if platform == model.PlatformYouTube {
			tokens.RefreshToken = cred.RefreshToken
		}
	}

	return &dto.PostNowResponse{
		Video:          video,
		PlatformTokens: tokens,
		Platform:       platform,
		HasTokens:      true,
	}, nil
}

func (u *AutomationUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	token, err := u.tokenUsecase.GetValidAccessToken(ctx, req.CreatorID, req.Platform)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshTokenResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// ReportUploadComplete ingests the media pipeline's completion callback. A
// callback for an unknown video with creator context creates a minimal draft
// row, so out-of-order delivery (upload finishing before the dashboard saved
// the record) loses nothing.
func (u *AutomationUsecase) ReportUploadComplete(ctx context.Context, req *dto.UploadCompleteRequest) (*dto.UploadCompleteResponse, error) {
	duplicate := false
	video, err := u.videoRepository.GetByID(ctx, req.VideoID)
	switch {
	case err == repository.ErrVideoNotFound:
		if req.CreatorID == "" {
			return nil, err
		}
		video = &model.Video{
			ID:             req.VideoID,
			CreatorID:      req.CreatorID,
			Title:          req.Title,
			ContentURL:     req.VideoURL,
			ThumbnailURL:   req.ThumbnailURL,
			PlatformTarget: model.PlatformInternal,
			Status:         model.StatusDraft,
		}
		if err := u.videoRepository.Upsert(ctx, video); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		duplicate = video.ContentURL != nil
		if err := u.videoRepository.SetUploadResult(ctx, req.VideoID, req.VideoURL, req.ThumbnailURL); err != nil {
			return nil, err
		}
	}

	// A failure reported after the post was already confirmed is stale; the
	// posted outcome wins, same as in ApplyPostResult.
	if req.ProcessingStatus == "failed" && video.Status != model.StatusPosted {
		message := "media processing failed"
		if req.ErrorMessage != nil {
			message = *req.ErrorMessage
		}
		if err := u.videoRepository.MarkFailed(ctx, req.VideoID, message); err != nil {
			return nil, err
		}
	}

	updated, err := u.videoRepository.GetByID(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	u.audit(ctx, req.VideoID, "upload_complete", map[string]interface{}{
		"processing_status": req.ProcessingStatus,
		"video_url":         req.VideoURL,
	}, duplicate)

	return &dto.UploadCompleteResponse{
		Success:          true,
		VideoID:          updated.ID,
		VideoURL:         updated.ContentURL,
		Status:           updated.Status,
		ProcessingStatus: req.ProcessingStatus,
	}, nil
}

// ReportPostStatus folds a post outcome callback into the orchestrator. The
// bool result flags an absorbed duplicate.
func (u *AutomationUsecase) ReportPostStatus(ctx context.Context, req *dto.PostStatusRequest) (*model.Video, bool, error) {
	outcome := PostOutcome{
		Status:       req.Status,
		Platform:     req.Platform,
		ResultURL:    req.PlatformPostURL,
		PostedAt:     req.PostedAt,
		ErrorMessage: req.ErrorMessage,
	}
	video, duplicate, err := u.publishUsecase.ApplyPostResult(ctx, req.VideoID, outcome)
	if err != nil {
		return nil, false, err
	}
	u.audit(ctx, req.VideoID, "post_status", map[string]interface{}{
		"status":   req.Status,
		"platform": req.Platform,
	}, duplicate)
	return video, duplicate, nil
}

func (u *AutomationUsecase) audit(ctx context.Context, videoID, kind string, payload map[string]interface{}, duplicate bool) {
	if u.callbackAudit == nil {
		return
	}
	entry := repository.CallbackAuditEntry{
		VideoID:   videoID,
		Kind:      kind,
		Payload:   payload,
		Duplicate: duplicate,
	}
	if err := u.callbackAudit.Append(ctx, entry); err != nil {
		logger.GetLogger().WithField("error", err).Warn("callback audit append failed")
	}
}
