package service

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
	"github.com/inkwell/studio/common/retention"
)

// StudioStore is the persistence contract for studio settings
type StudioStore interface {
	Create(ctx context.Context, studio *models.Studio) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Studio, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings json.RawMessage) (*models.Studio, error)
	List(ctx context.Context) ([]*models.Studio, error)
}

// SettingsService manages studio settings: the concierge persona,
// retention policy, and storage quota
type SettingsService struct {
	store    StudioStore
	policies *retention.Evaluator
	log      *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(store StudioStore, policies *retention.Evaluator, log *logger.Logger) *SettingsService {
	return &SettingsService{
		store:    store,
		policies: policies,
		log:      log,
	}
}

// CreateStudio registers a new studio owned by the actor
func (s *SettingsService) CreateStudio(ctx context.Context, actor, name string) (*models.Studio, error) {
	studio := &models.Studio{
		Name:    name,
		OwnerID: actor,
	}
	if err := s.store.Create(ctx, studio); err != nil {
		return nil, err
	}

	s.log.Info("studio created", "studio_id", studio.ID, "owner_id", actor)
	return studio, nil
}

// GetStudio retrieves a studio
func (s *SettingsService) GetStudio(ctx context.Context, id uuid.UUID) (*models.Studio, error) {
	return s.store.GetByID(ctx, id)
}

// ApplySettingsPatch applies an RFC 7386 merge patch to a studio's
// settings document. The patched document must still decode as settings,
// and a retention policy, if present, must compile.
func (s *SettingsService) ApplySettingsPatch(ctx context.Context, actor string, id uuid.UUID, patch []byte) (*models.Studio, error) {
	studio, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if studio.OwnerID != actor {
		return nil, fmt.Errorf("only the studio owner can change settings: %w", models.ErrForbidden)
	}

	current := studio.Settings
	if len(current) == 0 {
		current = json.RawMessage(`{}`)
	}

	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid settings patch: %v", models.ErrValidation, err)
	}

	settings := &models.StudioSettings{}
	if err := json.Unmarshal(merged, settings); err != nil {
		return nil, fmt.Errorf("%w: patched settings are malformed: %v", models.ErrValidation, err)
	}

	if settings.RetentionPolicy != "" {
		if err := s.policies.Validate(settings.RetentionPolicy); err != nil {
			return nil, fmt.Errorf("%w: retention policy rejected: %v", models.ErrValidation, err)
		}
	}

	updated, err := s.store.UpdateSettings(ctx, id, merged)
	if err != nil {
		return nil, err
	}

	s.log.Info("studio settings updated", "studio_id", id)
	return updated, nil
}
