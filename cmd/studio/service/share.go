package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
	rediscommon "github.com/inkwell/studio/common/redis"
	"github.com/inkwell/studio/common/repository"
)

// shareTokenTTL is how long a minted share link stays valid
const shareTokenTTL = 30 * 24 * time.Hour

// tokenStore is the key-value contract share tokens need.
// Implemented by the common redis client; tests use an in-memory fake.
type tokenStore interface {
	SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// ShareService mints and resolves public share links for designs.
// A share link exposes the design's lineage view without authentication.
type ShareService struct {
	store   DesignReader
	lineage *LineageService
	designs *DesignService
	redis   tokenStore
	log     *logger.Logger
}

// NewShareService creates a new share service
func NewShareService(
	store DesignReader,
	lineage *LineageService,
	designs *DesignService,
	redis tokenStore,
	log *logger.Logger,
) *ShareService {
	return &ShareService{
		store:   store,
		lineage: lineage,
		designs: designs,
		redis:   redis,
		log:     log,
	}
}

// ShareLink is a minted public link for a design
type ShareLink struct {
	Token     string    `json:"token"`
	DesignID  uuid.UUID `json:"design_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Mint creates a share token for the actor's design and flips its shared
// flag so the lineage becomes publicly readable
func (s *ShareService) Mint(ctx context.Context, actor string, designID uuid.UUID) (*ShareLink, error) {
	design, err := s.store.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}

	if design.OwnerID != actor {
		return nil, fmt.Errorf("design %s: %w", designID, models.ErrNotFound)
	}

	if !design.Shared {
		shared := true
		if _, err := s.designs.Update(ctx, actor, designID, &repository.DesignUpdate{Shared: &shared}); err != nil {
			return nil, err
		}
	}

	token := uuid.NewString()
	if err := s.redis.SetWithExpiry(ctx, shareTokenKey(token), designID.String(), shareTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store share token: %w", err)
	}

	s.log.Info("share link minted", "design_id", designID)

	return &ShareLink{
		Token:     token,
		DesignID:  designID,
		ExpiresAt: time.Now().UTC().Add(shareTokenTTL),
	}, nil
}

// Resolve turns a share token into the lineage view it points at.
// Unknown and expired tokens read as not found; a failing token store
// does not, so an outage surfaces as a server error instead of a 404.
func (s *ShareService) Resolve(ctx context.Context, token string) (*LineageView, error) {
	value, err := s.redis.Get(ctx, shareTokenKey(token))
	if err != nil {
		if errors.Is(err, rediscommon.ErrKeyNotFound) {
			return nil, fmt.Errorf("share link: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve share token: %w", err)
	}

	designID, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("share link: %w", models.ErrNotFound)
	}

	return s.lineage.View(ctx, designID)
}

func shareTokenKey(token string) string {
	return "share:token:" + token
}
