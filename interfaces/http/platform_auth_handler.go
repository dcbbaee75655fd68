package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	"creator-hub/infrastructure/logger"
	"creator-hub/interfaces/middleware"
	"creator-hub/usecase"
)

type IPlatformAuthHandler interface {
	GetAuthURL(c *gin.Context)
	Callback(c *gin.Context)
	Status(c *gin.Context)
	Disconnect(c *gin.Context)
}

// PlatformAuthHandler runs the three-legged connect flow for every supported
// platform plus connection status and disconnect. Credential writes are
// privileged: they require a session identity (or the permissive dev policy).
type PlatformAuthHandler struct {
	platformClients      map[string]repository.IPlatformClient
	credentialRepository repository.ICredential
	tokenCache           cache.ITokenCache
	policy               middleware.AuthPolicy

	stateMu sync.Mutex
	states  map[string]stateEntry // state -> pending flow
}

type stateEntry struct {
	creatorID string
	expiry    time.Time
}

func NewPlatformAuthHandler(platformClients map[string]repository.IPlatformClient, credentialRepository repository.ICredential, tokenCache cache.ITokenCache, policy middleware.AuthPolicy) IPlatformAuthHandler {
	return &PlatformAuthHandler{
		platformClients:      platformClients,
		credentialRepository: credentialRepository,
		tokenCache:           tokenCache,
		policy:               policy,
		states:               map[string]stateEntry{},
	}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// actingCreator returns the creator allowed to write credentials. The
// permissive policy substitutes a fixed dev identity so local setups work
// without a login flow.
func (h *PlatformAuthHandler) actingCreator(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return userID
	}
	if h.policy == middleware.AuthPermissive {
		return "demo-user"
	}
	return ""
}

func (h *PlatformAuthHandler) GetAuthURL(c *gin.Context) {
	platform := c.Param("platform")
	client, ok := h.platformClients[platform]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}
	creatorID := h.actingCreator(c)
	if creatorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	state := randomState()
	h.stateMu.Lock()
	h.states[state] = stateEntry{creatorID: creatorID, expiry: time.Now().Add(10 * time.Minute)}
	h.stateMu.Unlock()

	c.JSON(http.StatusOK, gin.H{"auth_url": client.AuthCodeURL(state), "state": state})
}

func (h *PlatformAuthHandler) Callback(c *gin.Context) {
	platform := c.Param("platform")
	client, ok := h.platformClients[platform]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	// The state ties the callback to the creator who started the flow; it is
	// single-use and expires after 10 minutes.
	state := c.Query("state")
	h.stateMu.Lock()
	entry, ok := h.states[state]
	if ok && time.Now().After(entry.expiry) {
		ok = false
	}
	if ok {
		delete(h.states, state)
	}
	h.stateMu.Unlock()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	exchanged, err := client.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": platform,
		}).Error("code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token_exchange_failed"})
		return
	}

	cred := &model.Credential{
		CreatorID:         entry.creatorID,
		Platform:          platform,
		AccessToken:       exchanged.AccessToken,
		RefreshToken:      exchanged.RefreshToken,
		ExpiresAt:         exchanged.ExpiresAt,
		Scopes:            exchanged.Scopes,
		ChannelID:         exchanged.Identity.ChannelID,
		Handle:            exchanged.Identity.Handle,
		BusinessAccountID: exchanged.Identity.BusinessAccountID,
		Username:          exchanged.Identity.Username,
	}
	if err := h.credentialRepository.Upsert(c.Request.Context(), cred); err != nil {
		logger.GetLogger().WithField("error", err).Error("storing credential failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential_store_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": true, "platform": platform})
}

func (h *PlatformAuthHandler) Status(c *gin.Context) {
	identity := usecase.RequestIdentity{SessionUserID: c.GetString("user_id")}
	if identity.SessionUserID == "" && h.policy == middleware.AuthPermissive {
		identity.SessionUserID = "demo-user"
	}
	if identity.SessionUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	creds, err := h.credentialRepository.ListByCreator(c.Request.Context(), identity.SessionUserID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("listing credentials failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	byPlatform := map[string]*model.Credential{}
	for _, cred := range creds {
		byPlatform[cred.Platform] = cred
	}
	statuses := make([]dto.PlatformStatus, 0, len(model.ConnectablePlatforms))
	for _, platform := range model.ConnectablePlatforms {
		status := dto.PlatformStatus{Platform: platform}
		if cred, ok := byPlatform[platform]; ok {
			status.Connected = true
			status.ExpiresAt = cred.ExpiresAt
			status.Handle = cred.Handle
			status.ChannelID = cred.ChannelID
		}
		statuses = append(statuses, status)
	}
	c.JSON(http.StatusOK, gin.H{"platforms": statuses})
}

func (h *PlatformAuthHandler) Disconnect(c *gin.Context) {
	platform := c.Param("platform")
	if !model.IsConnectablePlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}
	creatorID := h.actingCreator(c)
	if creatorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	if err := h.credentialRepository.Delete(c.Request.Context(), creatorID, platform); err != nil {
		logger.GetLogger().WithField("error", err).Error("disconnect failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	// The cached access token must die with the credential, otherwise token
	// reads keep succeeding until the cache entry expires.
	if h.tokenCache != nil {
		h.tokenCache.Invalidate(c.Request.Context(), creatorID, platform)
	}
	c.JSON(http.StatusOK, gin.H{"disconnected": true, "platform": platform})
}
