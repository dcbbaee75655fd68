package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
	"creator-hub/usecase"
)

type IAutomationHandler interface {
	PendingPosts(c *gin.Context)
	PostNow(c *gin.Context)
	RefreshToken(c *gin.Context)
	UploadComplete(c *gin.Context)
	PostStatus(c *gin.Context)
}

// AutomationHandler serves the routes the external workflow engine talks to.
// All of them sit behind the shared-secret middleware.
type AutomationHandler struct {
	automationUsecase usecase.IAutomationUsecase
}

func NewAutomationHandler(automationUsecase usecase.IAutomationUsecase) IAutomationHandler {
	return &AutomationHandler{automationUsecase: automationUsecase}
}

// PendingPosts is the pull feed. `before` defaults to now; `claim=true` opts
// into at-most-once delivery.
func (h *AutomationHandler) PendingPosts(c *gin.Context) {
	before := time.Now().UTC()
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be RFC3339"})
			return
		}
		before = parsed.UTC()
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}
	claim := c.Query("claim") == "true"

	res, err := h.automationUsecase.EnumeratePendingPosts(c.Request.Context(), before, limit, claim)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("pending posts enumeration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AutomationHandler) PostNow(c *gin.Context) {
	var req dto.PostNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.automationUsecase.ResolvePostNow(c.Request.Context(), &req)
	if err != nil {
		writeAutomationTokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AutomationHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.automationUsecase.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		writeAutomationTokenError(c, err)
		return
	}
	res.RequiresReconnection = false
	c.JSON(http.StatusOK, res)
}

func (h *AutomationHandler) UploadComplete(c *gin.Context) {
	var req dto.UploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.automationUsecase.ReportUploadComplete(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		logger.GetLogger().WithField("error", err).Error("upload-complete callback failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AutomationHandler) PostStatus(c *gin.Context) {
	var req dto.PostStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, duplicate, err := h.automationUsecase.ReportPostStatus(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		if errors.Is(err, usecase.ErrUnsupportedStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.GetLogger().WithField("error", err).Error("post-status callback failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video, "duplicate": duplicate})
}

// writeAutomationTokenError maps token failures to the engine's contract:
// anything requiring creator action is a 401 with requires_reconnection so
// the workflow can park the job instead of retrying.
func writeAutomationTokenError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrVideoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	var tokenErr *usecase.TokenUnavailableError
	if errors.As(err, &tokenErr) {
		if tokenErr.Reason == usecase.ReasonTransient {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": tokenErr.Reason})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": tokenErr.Reason, "requires_reconnection": true})
		return
	}
	logger.GetLogger().WithField("error", err).Error("automation token resolution failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
