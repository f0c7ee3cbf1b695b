package container

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell/studio/cmd/studio/repository"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/inkwell/studio/common/bootstrap"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/models"
	rediscommon "github.com/inkwell/studio/common/redis"
	commonrepo "github.com/inkwell/studio/common/repository"
	"github.com/inkwell/studio/common/retention"
	"github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client

	// Repositories
	DesignRepo     *commonrepo.DesignRepository
	StudioRepo     *commonrepo.StudioRepository
	CollectionRepo *repository.CollectionRepository

	// External clients
	BlobStore clients.BlobStore
	Generator clients.Generator

	// Services
	DesignService     *service.DesignService
	LineageService    *service.LineageService
	BranchService     *service.BranchService
	CompareService    *service.CompareService
	ShareService      *service.ShareService
	SettingsService   *service.SettingsService
	CollectionService *service.CollectionService
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	redisRaw := redis.NewClient(&redis.Options{
		Addr:     components.Config.RedisAddr(),
		Password: components.Config.Redis.Password,
		DB:       components.Config.Redis.DB,
	})
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)

	// Initialize repositories
	designRepo := commonrepo.NewDesignRepository(components.DB)
	studioRepo := commonrepo.NewStudioRepository(components.DB)
	collectionRepo := repository.NewCollectionRepository(components.DB)

	// External clients
	blobStore := clients.NewHTTPBlobStore(components.Config.BlobStore, components.Logger)
	generator := clients.NewHTTPGenerator(components.Config.Generation, components.Logger)

	policies, err := retention.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to build retention evaluator: %w", err)
	}

	// Initialize services (bottom-up: dependencies first)
	designService := service.NewDesignService(
		designRepo,
		blobStore,
		components.Queue,
		redisClient,
		components.Logger,
	)
	lineageService := service.NewLineageService(
		designRepo,
		components.Cache,
		components.Config.Cache.DefaultTTL,
		components.Logger,
	)
	branchService := service.NewBranchService(
		designRepo,
		designService,
		generator,
		redisClient,
		components.Logger,
	)
	compareService := service.NewCompareService(lineageService, designRepo, components.Logger)
	shareService := service.NewShareService(
		designRepo,
		lineageService,
		designService,
		redisClient,
		components.Logger,
	)
	settingsService := service.NewSettingsService(studioRepo, policies, components.Logger)
	collectionService := service.NewCollectionService(collectionRepo, components.Logger)

	c := &Container{
		Components:        components,
		Redis:             redisClient,
		DesignRepo:        designRepo,
		StudioRepo:        studioRepo,
		CollectionRepo:    collectionRepo,
		BlobStore:         blobStore,
		Generator:         generator,
		DesignService:     designService,
		LineageService:    lineageService,
		BranchService:     branchService,
		CompareService:    compareService,
		ShareService:      shareService,
		SettingsService:   settingsService,
		CollectionService: collectionService,
	}

	if err := c.subscribeLifecycleEvents(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// subscribeLifecycleEvents drops cached lineage chains when designs change.
// A deleted ancestor changes what a walk from any descendant returns;
// Invalidate cascades to every cached chain that contains the design.
func (c *Container) subscribeLifecycleEvents(ctx context.Context) error {
	return c.Components.Queue.Subscribe(ctx, models.TopicDesignEvents, func(ctx context.Context, key string, value []byte) error {
		event := &models.DesignEvent{}
		if err := json.Unmarshal(value, event); err != nil {
			return fmt.Errorf("malformed design event: %w", err)
		}

		c.LineageService.Invalidate(ctx, event.DesignID)

		return nil
	})
}
