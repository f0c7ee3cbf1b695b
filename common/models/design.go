package models

import (
	"time"

	"github.com/google/uuid"
)

// DesignStatus represents the lifecycle state of a design
type DesignStatus string

const (
	StatusDraft     DesignStatus = "draft"
	StatusPending   DesignStatus = "pending"
	StatusConfirmed DesignStatus = "confirmed"
)

// MaxLineageDepth bounds ancestor walks against corrupted data.
// Legitimate lineages are shallow (single digits to low tens of links).
const MaxLineageDepth = 1000

// Design represents one generated design and its metadata
// Maps to: design table
type Design struct {
	// Unique design ID, assigned at creation, immutable
	ID uuid.UUID `db:"id" json:"id"`

	// Account that created the design; immutable
	OwnerID string `db:"owner_id" json:"owner_id"`

	// Studio (tenant) the design belongs to
	StudioID uuid.UUID `db:"studio_id" json:"studio_id"`

	// Free text describing the desired design; may be absent
	Prompt *string `db:"prompt" json:"prompt,omitempty"`

	// Reference to the rendered output; write-once, null while generating
	ImageRef *string `db:"image_ref" json:"image_ref,omitempty"`

	// User-selected final rendition (mutable)
	FinalImageRef *string `db:"final_image_ref" json:"final_image_ref,omitempty"`

	// Optional user-supplied inspiration image; external input, not lineage
	ReferenceImageRef *string `db:"reference_image_ref" json:"reference_image_ref,omitempty"`

	// Immediate ancestor this design was branched from; null for roots.
	// Write-once: retroactive relinking could introduce a cycle.
	ParentID *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`

	// Lifecycle status; informational, not load-bearing for lineage
	Status DesignStatus `db:"status" json:"status"`

	// User-toggled favorite flag
	IsStarred bool `db:"is_starred" json:"is_starred"`

	// Optional grouping into a collection (mutable)
	CollectionID *uuid.UUID `db:"collection_id" json:"collection_id,omitempty"`

	// Whether the design is visible outside its owner (share pages, branching)
	Shared bool `db:"shared" json:"shared"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsRoot reports whether the design starts a lineage
func (d *Design) IsRoot() bool {
	return d.ParentID == nil
}

// IsReady reports whether generation has completed for this design
func (d *Design) IsReady() bool {
	return d.ImageRef != nil && *d.ImageRef != ""
}

// VisibleTo reports whether an actor may read this design
func (d *Design) VisibleTo(actor string) bool {
	return d.Shared || d.OwnerID == actor
}

// ValidStatus checks membership in the closed status set
func ValidStatus(s DesignStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed:
		return true
	}
	return false
}
