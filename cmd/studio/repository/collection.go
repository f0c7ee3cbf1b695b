package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/db"
	"github.com/inkwell/studio/common/models"
	"github.com/jackc/pgx/v5"
)

// CollectionRepository handles database operations for collections
type CollectionRepository struct {
	db *db.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *db.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create inserts a new collection
func (r *CollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is required", models.ErrValidation)
	}
	if collection.Name == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if collection.ID == uuid.Nil {
		collection.ID = uuid.New()
	}
	collection.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO collection (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		collection.ID,
		collection.OwnerID,
		collection.Name,
		collection.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// GetByID retrieves a collection by its ID
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	query := `SELECT id, owner_id, name, created_at FROM collection WHERE id = $1`

	collection := &models.Collection{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&collection.ID,
		&collection.OwnerID,
		&collection.Name,
		&collection.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	return collection, nil
}

// ListByOwner lists an owner's collections, newest first
func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Collection, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM collection
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		collection := &models.Collection{}
		err := rows.Scan(
			&collection.ID,
			&collection.OwnerID,
			&collection.Name,
			&collection.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return collections, nil
}

// Delete removes a collection and detaches its designs
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Designs keep living, just ungrouped
	if _, err := r.db.Exec(ctx, `UPDATE design SET collection_id = NULL WHERE collection_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach designs: %w", err)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM collection WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
	}

	return nil
}
