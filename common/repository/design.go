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

// designColumns is the canonical column list for design scans
const designColumns = `
	id, owner_id, studio_id, prompt, image_ref, final_image_ref,
	reference_image_ref, parent_id, status, is_starred, collection_id,
	shared, created_at, updated_at
`

// DesignRepository handles database operations for designs
type DesignRepository struct {
	db *db.DB
}

// NewDesignRepository creates a new design repository
func NewDesignRepository(db *db.DB) *DesignRepository {
	return &DesignRepository{db: db}
}

// DesignUpdate carries the mutable subset of design fields.
// parent_id and image_ref are deliberately absent: they are write-once
// and relinking history is never allowed.
type DesignUpdate struct {
	Status        *models.DesignStatus
	IsStarred     *bool
	CollectionID  *uuid.UUID
	ClearGroup    bool
	FinalImageRef *string
	Shared        *bool
}

// DesignFilter narrows ListByOwner results
type DesignFilter struct {
	Starred      *bool
	Status       *models.DesignStatus
	CollectionID *uuid.UUID
	Limit        int
}

// Create inserts a new design row, assigning id and created_at
func (r *DesignRepository) Create(ctx context.Context, design *models.Design) error {
	if design.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is required", models.ErrValidation)
	}
	if design.Status == "" {
		design.Status = models.StatusDraft
	}
	if !models.ValidStatus(design.Status) {
		return fmt.Errorf("%w: invalid status %q", models.ErrValidation, design.Status)
	}
	if design.ID == uuid.Nil {
		design.ID = uuid.New()
	}

	now := time.Now().UTC()
	design.CreatedAt = now
	design.UpdatedAt = now

	query := `
		INSERT INTO design (
			id, owner_id, studio_id, prompt, image_ref, final_image_ref,
			reference_image_ref, parent_id, status, is_starred, collection_id,
			shared, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.Exec(ctx, query,
		design.ID,
		design.OwnerID,
		design.StudioID,
		design.Prompt,
		design.ImageRef,
		design.FinalImageRef,
		design.ReferenceImageRef,
		design.ParentID,
		design.Status,
		design.IsStarred,
		design.CollectionID,
		design.Shared,
		design.CreatedAt,
		design.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}

	return nil
}

// GetByID retrieves a design by its ID
func (r *DesignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	query := `SELECT ` + designColumns + ` FROM design WHERE id = $1`

	design := &models.Design{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&design.ID,
		&design.OwnerID,
		&design.StudioID,
		&design.Prompt,
		&design.ImageRef,
		&design.FinalImageRef,
		&design.ReferenceImageRef,
		&design.ParentID,
		&design.Status,
		&design.IsStarred,
		&design.CollectionID,
		&design.Shared,
		&design.CreatedAt,
		&design.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get design: %w", err)
	}

	return design, nil
}

// Update writes the mutable fields of a design and returns the updated row.
// Only status, is_starred, collection_id, final_image_ref and shared can
// change; the SQL never touches parent_id or image_ref.
func (r *DesignRepository) Update(ctx context.Context, id uuid.UUID, update *DesignUpdate) (*models.Design, error) {
	query := `
		UPDATE design SET
			status          = COALESCE($2, status),
			is_starred      = COALESCE($3, is_starred),
			collection_id   = CASE WHEN $6 THEN NULL ELSE COALESCE($4, collection_id) END,
			final_image_ref = COALESCE($5, final_image_ref),
			shared          = COALESCE($7, shared),
			updated_at      = $8
		WHERE id = $1
		RETURNING ` + designColumns

	design := &models.Design{}
	err := r.db.QueryRow(ctx, query,
		id,
		update.Status,
		update.IsStarred,
		update.CollectionID,
		update.FinalImageRef,
		update.ClearGroup,
		update.Shared,
		time.Now().UTC(),
	).Scan(
		&design.ID,
		&design.OwnerID,
		&design.StudioID,
		&design.Prompt,
		&design.ImageRef,
		&design.FinalImageRef,
		&design.ReferenceImageRef,
		&design.ParentID,
		&design.Status,
		&design.IsStarred,
		&design.CollectionID,
		&design.Shared,
		&design.CreatedAt,
		&design.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update design: %w", err)
	}

	return design, nil
}

// Delete removes a design row
func (r *DesignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM design WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// ListByOwner lists an owner's designs, newest first
func (r *DesignRepository) ListByOwner(ctx context.Context, ownerID string, filter *DesignFilter) ([]*models.Design, error) {
	query := `SELECT ` + designColumns + ` FROM design WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if filter != nil {
		if filter.Starred != nil {
			args = append(args, *filter.Starred)
			query += fmt.Sprintf(" AND is_starred = $%d", len(args))
		}
		if filter.Status != nil {
			args = append(args, *filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.CollectionID != nil {
			args = append(args, *filter.CollectionID)
			query += fmt.Sprintf(" AND collection_id = $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	defer rows.Close()

	return scanDesigns(rows)
}

// ListSweepCandidates returns old, unstarred designs for the retention
// sweeper, oldest first
func (r *DesignRepository) ListSweepCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*models.Design, error) {
	query := `SELECT ` + designColumns + `
		FROM design
		WHERE created_at < $1 AND is_starred = FALSE
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep candidates: %w", err)
	}
	defer rows.Close()

	return scanDesigns(rows)
}

// UsageByOwner summarizes an owner's stored designs
func (r *DesignRepository) UsageByOwner(ctx context.Context, ownerID string) (*models.StorageUsage, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_starred)
		FROM design
		WHERE owner_id = $1
	`

	usage := &models.StorageUsage{OwnerID: ownerID}
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&usage.DesignCount, &usage.StarredCount); err != nil {
		return nil, fmt.Errorf("failed to summarize designs: %w", err)
	}

	return usage, nil
}

func scanDesigns(rows pgx.Rows) ([]*models.Design, error) {
	var designs []*models.Design
	for rows.Next() {
		design := &models.Design{}
		err := rows.Scan(
			&design.ID,
			&design.OwnerID,
			&design.StudioID,
			&design.Prompt,
			&design.ImageRef,
			&design.FinalImageRef,
			&design.ReferenceImageRef,
			&design.ParentID,
			&design.Status,
			&design.IsStarred,
			&design.CollectionID,
			&design.Shared,
			&design.CreatedAt,
			&design.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}
		designs = append(designs, design)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating designs: %w", err)
	}

	return designs, nil
}
