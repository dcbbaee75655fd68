package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"creator-hub/domain/repository"
	"creator-hub/infrastructure/realtime"
	httpHandler "creator-hub/interfaces/http"
	"creator-hub/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	publishHandler httpHandler.IPublishHandler,
	platformAuthHandler httpHandler.IPlatformAuthHandler,
	automationHandler httpHandler.IAutomationHandler,
	userRepository repository.IUser,
	callbackAuthenticator middleware.CallbackAuthenticator,
	publishHub *realtime.Hub,
	policy middleware.AuthPolicy,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Creator-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth connect flow. The callback is hit by the platform's redirect, so
	// it lives outside the authenticated group; the state parameter carries
	// the initiating creator.
	auth := router.Group("/auth")
	auth.Use(middleware.Auth(userRepository, middleware.AuthPermissive))
	auth.GET("/:platform", platformAuthHandler.GetAuthURL)
	router.GET("/auth/:platform/callback", platformAuthHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository, policy))
	{
		api.GET("/platforms/status", platformAuthHandler.Status)
		api.DELETE("/platforms/:platform", platformAuthHandler.Disconnect)

		api.GET("/videos", publishHandler.ListVideos)
		api.GET("/videos/:videoId", publishHandler.GetVideo)
		api.POST("/videos/:videoId/publish", publishHandler.Publish)

		api.GET("/publish/stream", publishHub.Serve)
	}

	// Routes for the external automation engine, shared-secret only.
	automation := router.Group("api/automation")
	automation.Use(middleware.CallbackAuth(callbackAuthenticator))
	{
		automation.GET("/pending-posts", automationHandler.PendingPosts)
		automation.POST("/post-now", automationHandler.PostNow)
		automation.POST("/refresh-token", automationHandler.RefreshToken)
		automation.POST("/upload-complete", automationHandler.UploadComplete)
		automation.POST("/post-status", automationHandler.PostStatus)
	}

	return router
}
