package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
)

// CollectionStore is the persistence contract for collections
type CollectionStore interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CollectionService handles library grouping
type CollectionService struct {
	store CollectionStore
	log   *logger.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(store CollectionStore, log *logger.Logger) *CollectionService {
	return &CollectionService{
		store: store,
		log:   log,
	}
}

// Create adds a collection for the actor
func (s *CollectionService) Create(ctx context.Context, actor, name string) (*models.Collection, error) {
	collection := &models.Collection{
		OwnerID: actor,
		Name:    name,
	}
	if err := s.store.Create(ctx, collection); err != nil {
		return nil, err
	}

	s.log.Info("collection created", "collection_id", collection.ID, "owner_id", actor)
	return collection, nil
}

// List returns the actor's collections
func (s *CollectionService) List(ctx context.Context, actor string) ([]*models.Collection, error) {
	return s.store.ListByOwner(ctx, actor)
}

// Delete removes the actor's collection, detaching its designs
func (s *CollectionService) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	collection, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if collection.OwnerID != actor {
		return fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
	}

	return s.store.Delete(ctx, id)
}
