// Package main runs the background job worker (contribution settlement and
// Stripe Connect account sync).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"github.com/velopreem/backend/config"
	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/docstore/firestoredb"
	"github.com/velopreem/backend/internal/docstore/memstore"
	"github.com/velopreem/backend/internal/livefeed"
	"github.com/velopreem/backend/internal/payments"
	"github.com/velopreem/backend/internal/worker"
	"github.com/velopreem/backend/pkg/queue"
	"github.com/velopreem/backend/pkg/redis"
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
	paySvc := payments.NewService(cfg.Stripe, repo, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	feed := livefeed.NewRedisPubSub(rdb.Client, logger)
	processor := worker.NewProcessor(repo, paySvc, jobQueue, feed, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

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
