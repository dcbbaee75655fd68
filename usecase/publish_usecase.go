package usecase

import (
	"context"
	"encoding/json"
	"time"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/pubsub"
	"creator-hub/infrastructure/realtime"
	"creator-hub/infrastructure/servicebus"
)

// PostOutcome is a terminal posting result reported for a video, either by
// the automation engine or by an internal post.
type PostOutcome struct {
	Status       string
	Platform     string
	ResultURL    *string
	PostedAt     *time.Time
	ErrorMessage *string
}

type IPublishUsecase interface {
	RequestPublish(ctx context.Context, identity RequestIdentity, videoID string, req *dto.PublishRequest) (*model.Video, error)
	ApplyPostResult(ctx context.Context, videoID string, outcome PostOutcome) (*model.Video, bool, error)
	GetVideo(ctx context.Context, identity RequestIdentity, videoID string) (*model.Video, error)
	ListVideos(ctx context.Context, identity RequestIdentity) ([]*model.Video, error)
}

// PublishUsecase drives the publish state machine:
// draft -> scheduled -> posted | failed, with posted/failed -> scheduled on
// retry. Immediate external publishes stay in draft and ride on a push
// trigger instead.
type PublishUsecase struct {
	videoRepository  repository.IVideo
	tokenUsecase     ITokenUsecase
	automationEngine repository.IAutomationEngine
	hub              *realtime.Hub
	lifecycle        pubsub.ILifecyclePublisher
	lifecycleBus     servicebus.ILifecycleBus
	now              func() time.Time
}

func NewPublishUsecase(
	videoRepository repository.IVideo,
	tokenUsecase ITokenUsecase,
	automationEngine repository.IAutomationEngine,
	hub *realtime.Hub,
	lifecycle pubsub.ILifecyclePublisher,
	lifecycleBus servicebus.ILifecycleBus,
) *PublishUsecase {
	return &PublishUsecase{
		videoRepository:  videoRepository,
		tokenUsecase:     tokenUsecase,
		automationEngine: automationEngine,
		hub:              hub,
		lifecycle:        lifecycle,
		lifecycleBus:     lifecycleBus,
		now:              time.Now,
	}
}

func (u *PublishUsecase) RequestPublish(ctx context.Context, identity RequestIdentity, videoID string, req *dto.PublishRequest) (*model.Video, error) {
	video, err := u.videoRepository.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	resolution, err := ResolveCreator(identity, video.CreatorID)
	if err != nil {
		return nil, err
	}
	if resolution.CreatorID != video.CreatorID {
		return nil, ErrForbidden
	}

	if !model.IsPublishTarget(req.Platform) {
		return nil, ErrUnsupportedPlatform
	}

	mode := req.Mode
	if mode == "" {
		if req.ScheduledAt != nil {
			mode = "schedule"
		} else {
			mode = "now"
		}
	}

	// An immediate external post needs finished media right now; a scheduled
	// one gets until its due time for the upload pipeline to finish.
	if mode == "now" && req.Platform != model.PlatformInternal && video.ContentURL == nil {
		return nil, ErrContentPending
	}

	// External targets need a working connection before anything is queued;
	// failing here leaves the video untouched.
	if req.Platform != model.PlatformInternal {
		if _, err := u.tokenUsecase.GetValidAccessToken(ctx, video.CreatorID, req.Platform); err != nil {
			return nil, err
		}
	}

	switch {
	case mode == "schedule":
		if req.ScheduledAt == nil || !req.ScheduledAt.After(u.now()) {
			return nil, ErrScheduleInPast
		}
		if err := u.videoRepository.MarkScheduled(ctx, video.ID, req.Platform, req.ScheduledAt.UTC()); err != nil {
			return nil, err
		}

	case req.Platform == model.PlatformInternal:
		// Internal posts have no external side effects to wait for.
		postedAt := u.now().UTC()
		if err := u.videoRepository.MarkPosted(ctx, video.ID, postedAt, req.Platform, nil); err != nil {
			return nil, err
		}

	default:
		// Immediate external publish: record the target, then wake the
		// engine. The status intentionally stays draft so that the polling
		// path cannot pick the video up a second time.
		if err := u.videoRepository.SetPlatformTarget(ctx, video.ID, req.Platform); err != nil {
			return nil, err
		}
		trigger := &dto.ImmediateTrigger{
			VideoID:      video.ID,
			CreatorID:    video.CreatorID,
			Platform:     req.Platform,
			TriggerType:  "immediate",
			ContentURL:   *video.ContentURL,
			Title:        video.Title,
			Description:  video.Description,
			ThumbnailURL: video.ThumbnailURL,
			CallbackURL:  configuration.C.App.PublicBaseURL + configuration.C.Automation.CallbackPath,
		}
		if err := u.automationEngine.TriggerImmediatePost(ctx, trigger); err != nil {
			return nil, ErrDispatchFailed
		}
	}

	updated, err := u.videoRepository.GetByID(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	u.notify(updated)
	return updated, nil
}

// ApplyPostResult folds a terminal posting result into the state machine.
// Duplicate "posted" reports are no-ops and a "failed" arriving after
// "posted" is ignored, so redelivered callbacks cannot corrupt state.
func (u *PublishUsecase) ApplyPostResult(ctx context.Context, videoID string, outcome PostOutcome) (*model.Video, bool, error) {
	video, err := u.videoRepository.GetByID(ctx, videoID)
	if err != nil {
		return nil, false, err
	}

	switch outcome.Status {
	case model.StatusPosted:
		if video.Status == model.StatusPosted {
			return video, true, nil
		}
		postedAt := u.now().UTC()
		if outcome.PostedAt != nil {
			postedAt = outcome.PostedAt.UTC()
		}
		platform := outcome.Platform
		if platform == "" {
			platform = video.PlatformTarget
		}
		if err := u.videoRepository.MarkPosted(ctx, videoID, postedAt, platform, outcome.ResultURL); err != nil {
			return nil, false, err
		}

	case model.StatusFailed:
		if video.Status == model.StatusPosted {
			return video, true, nil
		}
		message := "posting failed"
		if outcome.ErrorMessage != nil {
			message = *outcome.ErrorMessage
		}
		if err := u.videoRepository.MarkFailed(ctx, videoID, message); err != nil {
			return nil, false, err
		}

	default:
		return nil, false, ErrUnsupportedStatus
	}

	updated, err := u.videoRepository.GetByID(ctx, videoID)
	if err != nil {
		return nil, false, err
	}
	u.notify(updated)
	return updated, false, nil
}

func (u *PublishUsecase) GetVideo(ctx context.Context, identity RequestIdentity, videoID string) (*model.Video, error) {
	video, err := u.videoRepository.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	resolution, err := ResolveCreator(identity, video.CreatorID)
	if err != nil {
		return nil, err
	}
	if resolution.CreatorID != video.CreatorID {
		return nil, ErrForbidden
	}
	return video, nil
}

func (u *PublishUsecase) ListVideos(ctx context.Context, identity RequestIdentity) ([]*model.Video, error) {
	resolution, err := ResolveCreator(identity, "")
	if err != nil {
		return nil, err
	}
	return u.videoRepository.ListByCreator(ctx, resolution.CreatorID)
}

// notify fans the state change out to SSE subscribers and the lifecycle
// sinks. Every sink is optional and best-effort.
func (u *PublishUsecase) notify(video *model.Video) {
	if u.hub != nil {
		u.hub.BroadcastVideoStatus(video)
	}
	event := pubsub.LifecycleEvent{
		VideoID:    video.ID,
		CreatorID:  video.CreatorID,
		Platform:   video.PlatformTarget,
		Status:     video.Status,
		OccurredAt: u.now().UTC(),
	}
	if u.lifecycle != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := u.lifecycle.PublishLifecycle(ctx, event); err != nil {
				logger.GetLogger().WithField("error", err).Warn("lifecycle publish failed")
			}
		}()
	}
	if u.lifecycleBus != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			payload, err := json.Marshal(event)
			if err != nil {
				return
			}
			if err := u.lifecycleBus.SendLifecycleMessage(ctx, payload); err != nil {
				logger.GetLogger().WithField("error", err).Warn("lifecycle bus send failed")
			}
		}()
	}
}
