package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/db"
	"github.com/inkwell/studio/common/models"
	"github.com/jackc/pgx/v5"
)

// StudioRepository handles database operations for studios
type StudioRepository struct {
	db *db.DB
}

// NewStudioRepository creates a new studio repository
func NewStudioRepository(db *db.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

// Create inserts a new studio
func (r *StudioRepository) Create(ctx context.Context, studio *models.Studio) error {
	if studio.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is required", models.ErrValidation)
	}
	if studio.Name == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if studio.ID == uuid.Nil {
		studio.ID = uuid.New()
	}
	if len(studio.Settings) == 0 {
		studio.Settings = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	studio.CreatedAt = now
	studio.UpdatedAt = now

	query := `
		INSERT INTO studio (id, name, owner_id, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		studio.ID,
		studio.Name,
		studio.OwnerID,
		studio.Settings,
		studio.CreatedAt,
		studio.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create studio: %w", err)
	}

	return nil
}

// GetByID retrieves a studio by its ID
func (r *StudioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Studio, error) {
	query := `
		SELECT id, name, owner_id, settings, created_at, updated_at
		FROM studio
		WHERE id = $1
	`

	studio := &models.Studio{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&studio.ID,
		&studio.Name,
		&studio.OwnerID,
		&studio.Settings,
		&studio.CreatedAt,
		&studio.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("studio %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get studio: %w", err)
	}

	return studio, nil
}

// UpdateSettings replaces a studio's settings document
func (r *StudioRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings json.RawMessage) (*models.Studio, error) {
	query := `
		UPDATE studio SET settings = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, name, owner_id, settings, created_at, updated_at
	`

	studio := &models.Studio{}
	err := r.db.QueryRow(ctx, query, id, settings, time.Now().UTC()).Scan(
		&studio.ID,
		&studio.Name,
		&studio.OwnerID,
		&studio.Settings,
		&studio.CreatedAt,
		&studio.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("studio %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update studio settings: %w", err)
	}

	return studio, nil
}

// List returns all studios (admin use)
func (r *StudioRepository) List(ctx context.Context) ([]*models.Studio, error) {
	query := `
		SELECT id, name, owner_id, settings, created_at, updated_at
		FROM studio
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list studios: %w", err)
	}
	defer rows.Close()

	var studios []*models.Studio
	for rows.Next() {
		studio := &models.Studio{}
		err := rows.Scan(
			&studio.ID,
			&studio.Name,
			&studio.OwnerID,
			&studio.Settings,
			&studio.CreatedAt,
			&studio.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan studio: %w", err)
		}
		studios = append(studios, studio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating studios: %w", err)
	}

	return studios, nil
}
