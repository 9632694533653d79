// Package main runs the race platform HTTP server with the live race feed
// and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"github.com/velopreem/backend/config"
	"github.com/velopreem/backend/internal/auth"
	"github.com/velopreem/backend/internal/contributions"
	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/docstore/firestoredb"
	"github.com/velopreem/backend/internal/docstore/memstore"
	"github.com/velopreem/backend/internal/events"
	"github.com/velopreem/backend/internal/livefeed"
	"github.com/velopreem/backend/internal/middleware"
	"github.com/velopreem/backend/internal/organizations"
	"github.com/velopreem/backend/internal/payments"
	"github.com/velopreem/backend/internal/users"
	"github.com/velopreem/backend/internal/worker"
	"github.com/velopreem/backend/pkg/queue"
	"github.com/velopreem/backend/pkg/redis"
	"github.com/velopreem/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("docstore", zap.Error(err))
	}
	defer store.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	repo := datastore.New(store, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	pubsub := livefeed.NewRedisPubSub(rdb.Client, logger)
	hub := livefeed.NewHub(logger, pubsub, pubsub)

	var paySvc *payments.Service
	if cfg.Stripe.SecretKey != "" {
		paySvc = payments.NewService(cfg.Stripe, repo, logger)
	} else {
		logger.Warn("stripe disabled: no secret key configured")
	}

	authHandler := auth.NewHandler(repo, jwtService, logger)
	userHandler := users.NewHandler(repo, logger)
	orgHandler := organizations.NewHandler(repo, paySvc, jobQueue, logger)
	eventHandler := events.NewHandler(repo, logger)
	contributionHandler := contributions.NewHandler(repo, paySvc, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public reads: anyone can view the hierarchy
	router.GET("/view", eventHandler.View)
	router.GET("/organizations", orgHandler.List)
	router.GET("/organizations/:id", orgHandler.Get)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users/me", userHandler.Me)
		api.PATCH("/users/me", userHandler.UpdateMe)
		api.POST("/users/me/favorites", userHandler.AddFavorite)
		api.DELETE("/users/me/favorites", userHandler.RemoveFavorite)

		api.POST("/organizations", orgHandler.Create)
		api.PATCH("/organizations/:id", orgHandler.Update)
		api.POST("/organizations/:id/invites", orgHandler.Invite)
		api.POST("/organizations/:id/stripe/connect", orgHandler.ConnectStripe)
		api.POST("/organizations/:id/stripe/refresh", orgHandler.RefreshStripe)

		api.POST("/series", eventHandler.CreateSeries)
		api.POST("/events", eventHandler.CreateEvent)
		api.POST("/races", eventHandler.CreateRace)
		api.POST("/preems", eventHandler.CreatePreem)
		api.PATCH("/docs", eventHandler.Update)

		api.POST("/contributions/checkout", contributionHandler.Checkout)
		api.GET("/contributions", contributionHandler.ListMine)
	}

	// Webhooks (no JWT; Stripe signature verified in handler)
	router.POST("/webhooks/stripe", contributionHandler.Webhook)

	// WebSocket race feed (public, race in query)
	router.GET("/ws", livefeed.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process worker so single-binary deployments settle payments without
	// running cmd/worker separately.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if paySvc != nil {
		processor := worker.NewProcessor(repo, paySvc, jobQueue, pubsub, logger)
		go processor.Run(workerCtx)
		logger.Info("contribution worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newStore picks the document store: Cloud Firestore when a project is
// configured, the in-memory store for local development.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (docstore.Store, error) {
	if cfg.Firestore.ProjectID == "" || cfg.Firestore.InMemory {
		logger.Info("using in-memory document store")
		return memstore.New(), nil
	}
	var opts []option.ClientOption
	if cfg.Firestore.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	}
	return firestoredb.New(ctx, cfg.Firestore.ProjectID, logger, opts...)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
