package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
	"github.com/inkwell/studio/common/queue"
	"github.com/inkwell/studio/common/repository"
	rediscommon "github.com/inkwell/studio/common/redis"
)

// DesignStore is the persistence contract the design services need.
// Implemented by repository.DesignRepository; tests use an in-memory fake.
type DesignStore interface {
	Create(ctx context.Context, design *models.Design) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
	Update(ctx context.Context, id uuid.UUID, update *repository.DesignUpdate) (*models.Design, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID string, filter *repository.DesignFilter) ([]*models.Design, error)
	UsageByOwner(ctx context.Context, ownerID string) (*models.StorageUsage, error)
}

// DesignService handles business logic for the design record store
type DesignService struct {
	store DesignStore
	blobs clients.BlobStore
	queue queue.Queue
	redis *rediscommon.Client
	log   *logger.Logger
}

// NewDesignService creates a new design service
func NewDesignService(
	store DesignStore,
	blobs clients.BlobStore,
	q queue.Queue,
	redis *rediscommon.Client,
	log *logger.Logger,
) *DesignService {
	return &DesignService{
		store: store,
		blobs: blobs,
		queue: q,
		redis: redis,
		log:   log,
	}
}

// CreateDesignRequest represents a request to persist a design
// (a library save of a completed candidate, or a draft)
type CreateDesignRequest struct {
	StudioID          uuid.UUID  `json:"studio_id"`
	Prompt            *string    `json:"prompt,omitempty"`
	ImageRef          *string    `json:"image_ref,omitempty"`
	ReferenceImageRef *string    `json:"reference_image_ref,omitempty"`
	ParentID          *uuid.UUID `json:"parent_id,omitempty"`
	Status            string     `json:"status,omitempty"`
}

// Create persists a new design owned by the actor
func (s *DesignService) Create(ctx context.Context, actor string, req *CreateDesignRequest) (*models.Design, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: owner_id is required", models.ErrValidation)
	}

	design := &models.Design{
		OwnerID:           actor,
		StudioID:          req.StudioID,
		Prompt:            req.Prompt,
		ImageRef:          req.ImageRef,
		ReferenceImageRef: req.ReferenceImageRef,
		ParentID:          req.ParentID,
		Status:            models.DesignStatus(req.Status),
	}

	// parent_id is set exactly once, here; validate the link points at a
	// real design before committing
	if req.ParentID != nil {
		if _, err := s.store.GetByID(ctx, *req.ParentID); err != nil {
			return nil, fmt.Errorf("invalid parent link: %w", err)
		}
	}

	if err := s.store.Create(ctx, design); err != nil {
		return nil, err
	}

	s.log.Info("design created",
		"design_id", design.ID,
		"owner_id", design.OwnerID,
		"is_branch", design.ParentID != nil)

	s.publishEvent(ctx, models.EventDesignCreated, design)

	return design, nil
}

// Get retrieves a design visible to the actor
func (s *DesignService) Get(ctx context.Context, actor string, id uuid.UUID) (*models.Design, error) {
	design, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !design.VisibleTo(actor) {
		// Invisible designs look exactly like missing ones
		return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}

	return design, nil
}

// ParseUpdate decodes an update payload, rejecting immutable and unknown
// fields. parent_id and image_ref are write-once: accepting them here could
// introduce a lineage cycle or silently rewrite history.
func ParseUpdate(raw []byte) (*repository.DesignUpdate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed update payload", models.ErrValidation)
	}

	update := &repository.DesignUpdate{}
	for key, value := range fields {
		switch key {
		case "parent_id", "image_ref", "owner_id", "studio_id", "created_at", "id":
			return nil, fmt.Errorf("%w: %s cannot be changed after creation", models.ErrImmutableField, key)
		case "status":
			var status models.DesignStatus
			if err := json.Unmarshal(value, &status); err != nil {
				return nil, fmt.Errorf("%w: invalid status", models.ErrValidation)
			}
			if !models.ValidStatus(status) {
				return nil, fmt.Errorf("%w: invalid status %q", models.ErrValidation, status)
			}
			update.Status = &status
		case "is_starred":
			var starred bool
			if err := json.Unmarshal(value, &starred); err != nil {
				return nil, fmt.Errorf("%w: invalid is_starred", models.ErrValidation)
			}
			update.IsStarred = &starred
		case "collection_id":
			if string(value) == "null" {
				update.ClearGroup = true
				continue
			}
			var collectionID uuid.UUID
			if err := json.Unmarshal(value, &collectionID); err != nil {
				return nil, fmt.Errorf("%w: invalid collection_id", models.ErrValidation)
			}
			update.CollectionID = &collectionID
		case "final_image_ref":
			var ref string
			if err := json.Unmarshal(value, &ref); err != nil {
				return nil, fmt.Errorf("%w: invalid final_image_ref", models.ErrValidation)
			}
			update.FinalImageRef = &ref
		case "shared":
			var shared bool
			if err := json.Unmarshal(value, &shared); err != nil {
				return nil, fmt.Errorf("%w: invalid shared", models.ErrValidation)
			}
			update.Shared = &shared
		default:
			return nil, fmt.Errorf("%w: unknown field %q", models.ErrValidation, key)
		}
	}

	return update, nil
}

// Update applies mutable-field changes to the actor's design
func (s *DesignService) Update(ctx context.Context, actor string, id uuid.UUID, update *repository.DesignUpdate) (*models.Design, error) {
	design, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if design.OwnerID != actor {
		if !design.VisibleTo(actor) {
			return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("only the owner can modify design %s: %w", id, models.ErrForbidden)
	}

	updated, err := s.store.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.EventDesignUpdated, updated)

	return updated, nil
}

// Delete removes the actor's design. Associated blobs are released first,
// best-effort: a stuck blob store must not block an otherwise-valid delete,
// the reconciliation sweep catches leaks.
func (s *DesignService) Delete(ctx context.Context, actor string, id uuid.UUID, admin bool) error {
	design, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !admin && design.OwnerID != actor {
		if !design.VisibleTo(actor) {
			return fmt.Errorf("design %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("only the owner can delete design %s: %w", id, models.ErrForbidden)
	}

	s.releaseBlobs(ctx, design)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("design deleted", "design_id", id, "owner_id", design.OwnerID, "admin", admin)

	s.publishEvent(ctx, models.EventDesignDeleted, design)

	return nil
}

// List returns the actor's designs, newest first
func (s *DesignService) List(ctx context.Context, actor string, filter *repository.DesignFilter) ([]*models.Design, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: owner_id is required", models.ErrValidation)
	}
	return s.store.ListByOwner(ctx, actor, filter)
}

// Usage summarizes the actor's stored designs and approximate blob bytes
func (s *DesignService) Usage(ctx context.Context, actor string) (*models.StorageUsage, error) {
	usage, err := s.store.UsageByOwner(ctx, actor)
	if err != nil {
		return nil, err
	}

	bytes, err := s.blobs.Usage(ctx, actor)
	if err != nil {
		// Metering is advisory; counts are still useful without it
		s.log.Warn("blob usage lookup failed", "owner_id", actor, "error", err)
	} else {
		usage.ApproxBytes = bytes
	}

	return usage, nil
}

// releaseBlobs releases every blob reference the design holds
func (s *DesignService) releaseBlobs(ctx context.Context, design *models.Design) {
	refs := make(map[string]bool)
	for _, ref := range []*string{design.ImageRef, design.FinalImageRef, design.ReferenceImageRef} {
		if ref != nil && *ref != "" {
			refs[*ref] = true
		}
	}

	for ref := range refs {
		if err := s.blobs.Release(ctx, ref); err != nil {
			s.log.Warn("blob release failed, proceeding with delete",
				"design_id", design.ID,
				"ref", ref,
				"error", err)
		}
	}
}

func (s *DesignService) publishEvent(ctx context.Context, eventType string, design *models.Design) {
	event := &models.DesignEvent{
		Type:     eventType,
		DesignID: design.ID,
		OwnerID:  design.OwnerID,
		ParentID: design.ParentID,
		At:       design.UpdatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error("failed to marshal design event", "error", err)
		return
	}

	if s.queue != nil {
		if err := s.queue.Publish(ctx, models.TopicDesignEvents, design.ID.String(), payload); err != nil {
			s.log.Warn("failed to publish design event", "type", eventType, "error", err)
		}
	}

	// Mirror to Redis for out-of-process consumers
	if s.redis != nil {
		if err := s.redis.PublishEvent(ctx, models.ChannelDesignEvents, string(payload)); err != nil {
			s.log.Warn("failed to mirror design event to redis", "type", eventType, "error", err)
		}
	}
}
