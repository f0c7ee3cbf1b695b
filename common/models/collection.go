package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection groups designs inside a library
// Maps to: collection table
type Collection struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StorageUsage summarizes an owner's stored designs (admin dashboard)
type StorageUsage struct {
	OwnerID      string `db:"owner_id" json:"owner_id"`
	DesignCount  int64  `db:"design_count" json:"design_count"`
	StarredCount int64  `db:"starred_count" json:"starred_count"`
	// Approximate: rendered plus reference images, metered by the blob store
	ApproxBytes int64 `db:"approx_bytes" json:"approx_bytes"`
}
