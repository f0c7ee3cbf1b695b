package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/inkwell/studio/common/config"
	"github.com/inkwell/studio/common/logger"
	rediscommon "github.com/inkwell/studio/common/redis"
	"github.com/inkwell/studio/common/repository"
	"github.com/inkwell/studio/common/retention"
)

const sweepLockKey = "retention:sweep:lock"

// sweepActor is recorded as the deleting actor on retention deletes
const sweepActor = "retention-sweeper"

// Sweeper applies per-studio retention policies to old designs.
// Deletes go through the design service so blob release and lifecycle
// events behave exactly as user-initiated deletes do.
type Sweeper struct {
	designs    *service.DesignService
	designRepo *repository.DesignRepository
	studioRepo *repository.StudioRepository
	policies   *retention.Evaluator
	redis      *rediscommon.Client
	cfg        config.RetentionConfig
	log        *logger.Logger
	instanceID string
}

// NewSweeper creates a new retention sweeper
func NewSweeper(
	designs *service.DesignService,
	designRepo *repository.DesignRepository,
	studioRepo *repository.StudioRepository,
	policies *retention.Evaluator,
	redis *rediscommon.Client,
	cfg config.RetentionConfig,
	log *logger.Logger,
) *Sweeper {
	return &Sweeper{
		designs:    designs,
		designRepo: designRepo,
		studioRepo: studioRepo,
		policies:   policies,
		redis:      redis,
		cfg:        cfg,
		log:        log,
		instanceID: uuid.NewString(),
	}
}

// Run sweeps on the configured interval until the context is cancelled.
// The first sweep happens immediately.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopping")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep pass. Only one instance sweeps at a
// time; the others skip the pass when the lock is held.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	acquired, err := s.redis.SetNX(ctx, sweepLockKey, s.instanceID, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if !acquired {
		s.log.Debug("sweep lock held elsewhere, skipping pass")
		return nil
	}
	defer func() {
		if err := s.redis.ReleaseLock(ctx, sweepLockKey, s.instanceID); err != nil {
			s.log.Warn("failed to release sweep lock", "error", err)
		}
	}()

	// Candidates are prefiltered to unstarred designs at least a day old;
	// the studio policy decides what actually goes
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	candidates, err := s.designRepo.ListSweepCandidates(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list sweep candidates: %w", err)
	}

	if len(candidates) == 0 {
		s.log.Debug("no sweep candidates")
		return nil
	}

	now := time.Now().UTC()
	policyByStudio := make(map[uuid.UUID]string)
	swept := 0

	for _, design := range candidates {
		if ctx.Err() != nil {
			break
		}

		policy := s.policyFor(ctx, design.StudioID, policyByStudio)

		remove, err := s.policies.ShouldDelete(policy, design, now)
		if err != nil {
			s.log.Warn("retention policy evaluation failed, keeping design",
				"design_id", design.ID,
				"studio_id", design.StudioID,
				"error", err)
			continue
		}
		if !remove {
			continue
		}

		if err := s.designs.Delete(ctx, sweepActor, design.ID, true); err != nil {
			s.log.Warn("retention delete failed",
				"design_id", design.ID,
				"error", err)
			continue
		}
		swept++
	}

	s.log.Info("sweep pass complete", "candidates", len(candidates), "swept", swept)
	return nil
}

// policyFor resolves the retention policy for a studio, falling back to
// the configured default when the studio has none or cannot be read
func (s *Sweeper) policyFor(ctx context.Context, studioID uuid.UUID, seen map[uuid.UUID]string) string {
	if policy, ok := seen[studioID]; ok {
		return policy
	}

	policy := s.cfg.DefaultPolicy

	studio, err := s.studioRepo.GetByID(ctx, studioID)
	if err != nil {
		s.log.Warn("studio lookup failed, using default policy", "studio_id", studioID, "error", err)
		seen[studioID] = policy
		return policy
	}

	settings, err := studio.ParseSettings()
	if err != nil {
		s.log.Warn("malformed studio settings, using default policy", "studio_id", studioID, "error", err)
	} else if settings.RetentionPolicy != "" {
		policy = settings.RetentionPolicy
	}

	seen[studioID] = policy
	return policy
}
