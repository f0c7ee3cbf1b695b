package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
)

// branchIdempotencyTTL bounds how long a client idempotency key is honored
const branchIdempotencyTTL = 24 * time.Hour

// idempotencyStore is the key-value contract idempotency claims need.
// Implemented by the common redis client; tests use an in-memory fake.
type idempotencyStore interface {
	SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// BranchService prepares and executes branch/tweak operations:
// a new design that continues an existing lineage, never a mutation
// of the source.
type BranchService struct {
	store     DesignReader
	designs   *DesignService
	generator clients.Generator
	redis     idempotencyStore
	log       *logger.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(
	store DesignReader,
	designs *DesignService,
	generator clients.Generator,
	redis idempotencyStore,
	log *logger.Logger,
) *BranchService {
	return &BranchService{
		store:     store,
		designs:   designs,
		generator: generator,
		redis:     redis,
		log:       log,
	}
}

// BranchRequest represents a request to branch off an existing design
type BranchRequest struct {
	// Optional prompt override; defaults to the source design's prompt
	Prompt *string `json:"prompt,omitempty"`

	// Optional reference override; defaults to the source design's own
	// rendered image ("use this as my new reference")
	ReferenceImageRef *string `json:"reference_image_ref,omitempty"`

	// Engine-specific generation params, passed through opaquely
	Params map[string]interface{} `json:"params,omitempty"`

	// Optional client-supplied key; repeated submissions with the same
	// key return the originally created design
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// BranchPayload is the pre-populated generation request for a branch,
// exposed on the deep-link endpoint before any generation happens
type BranchPayload struct {
	ParentID          uuid.UUID `json:"parent_id"`
	StudioID          uuid.UUID `json:"studio_id"`
	Prompt            string    `json:"prompt"`
	ReferenceImageRef string    `json:"reference_image_ref"`
}

// Prepare resolves the source design and builds the branch payload
// without calling the generation service. The source is read-only
// throughout: no field on it is ever modified by a branch.
func (s *BranchService) Prepare(ctx context.Context, actor string, sourceID uuid.UUID, req *BranchRequest) (*BranchPayload, error) {
	source, err := s.store.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	// Branching off someone else's design is only allowed when it has
	// been explicitly shared; invisible designs look missing
	if !source.VisibleTo(actor) {
		return nil, fmt.Errorf("design %s: %w", sourceID, models.ErrNotFound)
	}

	if !source.IsReady() {
		return nil, fmt.Errorf("design %s has no rendered image yet: %w", sourceID, models.ErrNotReady)
	}

	prompt := ""
	if source.Prompt != nil {
		prompt = *source.Prompt
	}
	if req != nil && req.Prompt != nil {
		prompt = *req.Prompt
	}

	reference := *source.ImageRef
	if req != nil && req.ReferenceImageRef != nil && *req.ReferenceImageRef != "" {
		reference = *req.ReferenceImageRef
	}

	return &BranchPayload{
		ParentID:          source.ID,
		StudioID:          source.StudioID,
		Prompt:            prompt,
		ReferenceImageRef: reference,
	}, nil
}

// Branch generates a new design continuing the source's lineage.
// The external generation call completes before any row is created:
// if it fails or times out, nothing is persisted and no dangling
// lineage node ever exists.
func (s *BranchService) Branch(ctx context.Context, actor string, sourceID uuid.UUID, req *BranchRequest) (*models.Design, error) {
	payload, err := s.Prepare(ctx, actor, sourceID, req)
	if err != nil {
		return nil, err
	}

	claimed := false
	if req != nil && req.IdempotencyKey != "" {
		existing, done, didClaim, err := s.claimIdempotencyKey(ctx, actor, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if done {
			return existing, nil
		}
		claimed = didClaim
	}

	genReq := &clients.GenerationRequest{
		Prompt:            payload.Prompt,
		ReferenceImageRef: payload.ReferenceImageRef,
	}
	if req != nil {
		genReq.Params = req.Params
	}

	start := time.Now()
	result, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		// Release the claim so retrying the failed generation with the
		// same key is not locked out for the TTL
		if claimed {
			s.releaseIdempotencyClaim(ctx, actor, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("generation failed, no design created: %w", err)
	}

	s.log.Info("branch generation complete",
		"source_id", sourceID,
		"duration_ms", time.Since(start).Milliseconds())

	prompt := payload.Prompt
	design, err := s.designs.Create(ctx, actor, &CreateDesignRequest{
		StudioID:          payload.StudioID,
		Prompt:            &prompt,
		ImageRef:          &result.ImageRef,
		ReferenceImageRef: &payload.ReferenceImageRef,
		ParentID:          &payload.ParentID,
		Status:            string(models.StatusPending),
	})
	if err != nil {
		// The generated image is now orphaned in blob storage; the
		// unreferenced-blob sweep reclaims it. No lineage link exists.
		if claimed {
			s.releaseIdempotencyClaim(ctx, actor, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to persist branched design: %w", err)
	}

	if req != nil && req.IdempotencyKey != "" {
		s.recordIdempotentResult(ctx, actor, req.IdempotencyKey, design.ID)
	}

	return design, nil
}

// claimIdempotencyKey reserves the key. If it was already claimed and the
// original branch completed, the stored design is returned. The claimed
// result reports whether this call wrote the reservation; only then may
// the caller release it on failure.
func (s *BranchService) claimIdempotencyKey(ctx context.Context, actor, key string) (existing *models.Design, done bool, claimed bool, err error) {
	if s.redis == nil {
		return nil, false, false, nil
	}

	redisKey := idempotencyKey(actor, key)
	wasSet, err := s.redis.SetNX(ctx, redisKey, "pending", branchIdempotencyTTL)
	if err != nil {
		// Idempotency is best-effort protection, not a correctness gate
		s.log.Warn("idempotency claim failed, proceeding", "error", err)
		return nil, false, false, nil
	}
	if wasSet {
		return nil, false, true, nil
	}

	value, err := s.redis.Get(ctx, redisKey)
	if err != nil {
		// Claim state unknown (expired between SETNX and GET, or store
		// trouble); proceed rather than reject
		s.log.Warn("idempotency lookup failed, proceeding", "error", err)
		return nil, false, false, nil
	}
	if value == "pending" {
		return nil, false, false, fmt.Errorf("branch with key %q is already in progress: %w", key, models.ErrValidation)
	}

	designID, err := uuid.Parse(value)
	if err != nil {
		return nil, false, false, fmt.Errorf("branch with key %q is already in progress: %w", key, models.ErrValidation)
	}

	design, err := s.store.GetByID(ctx, designID)
	if err != nil {
		return nil, false, false, err
	}

	s.log.Info("branch replayed from idempotency key", "design_id", designID)
	return design, true, false, nil
}

// releaseIdempotencyClaim drops a reservation after a failed attempt
func (s *BranchService) releaseIdempotencyClaim(ctx context.Context, actor, key string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Delete(ctx, idempotencyKey(actor, key)); err != nil {
		s.log.Warn("failed to release idempotency claim", "error", err)
	}
}

func (s *BranchService) recordIdempotentResult(ctx context.Context, actor, key string, designID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.SetWithExpiry(ctx, idempotencyKey(actor, key), designID.String(), branchIdempotencyTTL); err != nil {
		s.log.Warn("failed to record idempotency result", "error", err)
	}
}

func idempotencyKey(actor, key string) string {
	return fmt.Sprintf("branch:idem:%s:%s", actor, key)
}
