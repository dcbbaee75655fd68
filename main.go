package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	automationclient "creator-hub/infrastructure/clients/automation"
	instagramclient "creator-hub/infrastructure/clients/instagram"
	tiktokclient "creator-hub/infrastructure/clients/tiktok"
	youtubeclient "creator-hub/infrastructure/clients/youtube"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/persistence"
	"creator-hub/infrastructure/pubsub"
	"creator-hub/infrastructure/realtime"
	"creator-hub/infrastructure/servicebus"
	httpHandler "creator-hub/interfaces/http"
	"creator-hub/interfaces/middleware"
	"creator-hub/server"
	"creator-hub/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	userDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}
	if psqlDb != nil {
		if err := persistence.EnsurePublishSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring publish schema")
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without callback auditing")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without callback auditing")
		mongoDb = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - lifecycle events will not be mirrored")
		pubSubClient = nil
	}
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
		azServiceBusClient = nil
	}
	redisClient := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)

	// Repository wiring: the user store may live on MSSQL in production, the
	// publishing tables always live on PostgreSQL.
	var userRepository repository.IUser
	if userDb != nil && userDb != psqlDb {
		userRepository = persistence.NewUserRepositoryMSSQL(userDb)
	} else {
		userRepository = persistence.NewUserRepository(psqlDb)
	}
	credentialRepository := persistence.NewCredentialRepository(psqlDb)
	videoRepository := persistence.NewVideoRepository(psqlDb)
	callbackAudit := persistence.NewCallbackAuditRepository(mongoDb)

	platformClients := map[string]repository.IPlatformClient{}
	if conf := configuration.C.OAuth.YouTube; conf.ClientID != "" {
		platformClients["youtube"] = youtubeclient.NewClient(&youtubeclient.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURI,
		})
	}
	if conf := configuration.C.OAuth.Instagram; conf.ClientID != "" {
		platformClients["instagram"] = instagramclient.NewClient(&instagramclient.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURI:  conf.RedirectURI,
		})
	}
	if conf := configuration.C.OAuth.TikTok; conf.ClientID != "" {
		platformClients["tiktok"] = tiktokclient.NewClient(&tiktokclient.Config{
			ClientKey:    conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURI:  conf.RedirectURI,
		})
	}
	if len(platformClients) == 0 {
		logger.GetLogger().Warn("No platform OAuth clients configured - external publishing disabled")
	}

	engineClient := automationclient.NewEngineClient(
		configuration.C.Automation.WebhookURL,
		configuration.C.Automation.SharedSecret,
	)

	var lifecycle pubsub.ILifecyclePublisher
	if pubSubClient != nil {
		lifecycle = pubsub.NewLifecyclePublisher(pubSubClient, configuration.C.Pubsub.Topic)
	}
	var lifecycleBus servicebus.ILifecycleBus
	if azServiceBusClient != nil {
		lifecycleBus = servicebus.NewLifecycleBus(azServiceBusClient, configuration.C.ServiceBus.Queue)
	}

	publishHub := realtime.NewPublishHub()
	tokenCache := cache.NewTokenCache(redisClient)

	userUsecase := usecase.NewUserUsecase(userRepository)
	tokenUsecase := usecase.NewTokenUsecase(credentialRepository, platformClients, tokenCache)
	publishUsecase := usecase.NewPublishUsecase(videoRepository, tokenUsecase, engineClient, publishHub, lifecycle, lifecycleBus)
	automationUsecase := usecase.NewAutomationUsecase(videoRepository, credentialRepository, tokenUsecase, publishUsecase, callbackAudit)

	policy := middleware.PolicyFromConfig()
	userHandler := httpHandler.NewUserHandler(userUsecase)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase)
	platformAuthHandler := httpHandler.NewPlatformAuthHandler(platformClients, credentialRepository, tokenCache, policy)
	automationHandler := httpHandler.NewAutomationHandler(automationUsecase)
	callbackAuthenticator := middleware.NewSharedSecretAuthenticator(configuration.C.Automation.SharedSecret)

	router := server.InitiateRouter(
		userHandler,
		publishHandler,
		platformAuthHandler,
		automationHandler,
		userRepository,
		callbackAuthenticator,
		publishHub,
		policy,
	)

	logger.GetLogger().WithFields(map[string]interface{}{
		"port":      app.Port,
		"tls":       app.TLSEnabled,
		"auth_mode": app.AuthMode,
	}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", app.Port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase returns (userDB, psqlDB). In production the user store is
// MSSQL and psqlDB still carries the publishing tables; locally both are the
// same PostgreSQL.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	env := os.Getenv("ENV")
	useMssql := os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod"

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		if !useMssql {
			return nil, nil, err
		}
		postgres = nil
	}

	if useMssql {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, nil, err
		}
		return mssql, postgres, nil
	}
	return postgres, postgres, nil
}
