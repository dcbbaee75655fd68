package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
	"creator-hub/usecase"
)

type IPublishHandler interface {
	Publish(c *gin.Context)
	GetVideo(c *gin.Context)
	ListVideos(c *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase}
}

// requestIdentity collects the identity hints the usecase chain resolves.
func requestIdentity(c *gin.Context) usecase.RequestIdentity {
	clientCreatorID := c.GetHeader("X-Creator-ID")
	if clientCreatorID == "" {
		clientCreatorID = c.Query("creator_id")
	}
	return usecase.RequestIdentity{
		SessionUserID:   c.GetString("user_id"),
		ClientCreatorID: clientCreatorID,
	}
}

func (h *PublishHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := h.publishUsecase.RequestPublish(c.Request.Context(), requestIdentity(c), c.Param("videoId"), &req)
	if err != nil {
		writePublishError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video})
}

func (h *PublishHandler) GetVideo(c *gin.Context) {
	video, err := h.publishUsecase.GetVideo(c.Request.Context(), requestIdentity(c), c.Param("videoId"))
	if err != nil {
		writePublishError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video})
}

func (h *PublishHandler) ListVideos(c *gin.Context) {
	videos, err := h.publishUsecase.ListVideos(c.Request.Context(), requestIdentity(c))
	if err != nil {
		writePublishError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// writePublishError maps the orchestrator's error taxonomy onto HTTP. The
// distinctions matter to the dashboard: a missing token renders a "reconnect
// this platform" prompt, pending content an "upload still processing" one.
func writePublishError(c *gin.Context, err error) {
	var tokenErr *usecase.TokenUnavailableError
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, repository.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
	case errors.Is(err, usecase.ErrContentPending):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "content_pending", "message": "upload still processing"})
	case errors.Is(err, usecase.ErrDispatchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "dispatch_failed"})
	case errors.Is(err, usecase.ErrUnsupportedPlatform), errors.Is(err, usecase.ErrScheduleInPast), errors.Is(err, usecase.ErrUnsupportedStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &tokenErr):
		switch tokenErr.Reason {
		case usecase.ReasonTransient:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": tokenErr.Reason, "platform": tokenErr.Platform})
		default:
			c.JSON(http.StatusConflict, gin.H{
				"error":    tokenErr.Reason,
				"platform": tokenErr.Platform,
				"message":  "reconnect this platform",
			})
		}
	default:
		logger.GetLogger().WithField("error", err).Error("publish request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
