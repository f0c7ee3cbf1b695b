package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/inkwell/studio/common/bootstrap"
	"github.com/inkwell/studio/common/clients"
	rediscommon "github.com/inkwell/studio/common/redis"
	"github.com/inkwell/studio/common/repository"
	"github.com/inkwell/studio/common/retention"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Setup(ctx, "sweeper")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap sweeper: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	redisRaw := redis.NewClient(&redis.Options{
		Addr:     components.Config.RedisAddr(),
		Password: components.Config.Redis.Password,
		DB:       components.Config.Redis.DB,
	})
	if err := redisRaw.Ping(ctx).Err(); err != nil {
		components.Logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)

	designRepo := repository.NewDesignRepository(components.DB)
	studioRepo := repository.NewStudioRepository(components.DB)
	blobStore := clients.NewHTTPBlobStore(components.Config.BlobStore, components.Logger)

	policies, err := retention.NewEvaluator()
	if err != nil {
		components.Logger.Error("failed to build retention evaluator", "error", err)
		os.Exit(1)
	}

	// Sweep deletes reuse the design service so blob release and
	// lifecycle events match user-initiated deletes
	designService := service.NewDesignService(
		designRepo,
		blobStore,
		components.Queue,
		redisClient,
		components.Logger,
	)

	sweeper := NewSweeper(
		designService,
		designRepo,
		studioRepo,
		policies,
		redisClient,
		components.Config.Retention,
		components.Logger,
	)

	// Cancel the sweep loop on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		components.Logger.Info("shutdown signal received")
		cancel()
	}()

	components.Logger.Info("sweeper starting",
		"interval", components.Config.Retention.Interval,
		"batch_size", components.Config.Retention.BatchSize)

	sweeper.Run(ctx)
}
