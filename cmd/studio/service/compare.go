package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
)

// Slider position bounds and steps for the before/after reveal
const (
	SliderMin     = 0.0
	SliderMax     = 100.0
	SliderInitial = 50.0
	SliderStep    = 5.0
)

// Slider models the before/after reveal state: a single continuous
// position in [0, 100], the percentage of the "after" image revealed
// from the left edge. Ephemeral UI state, never persisted.
type Slider struct {
	position float64
}

// NewSlider returns a slider centered at 50
func NewSlider() *Slider {
	return &Slider{position: SliderInitial}
}

// Position returns the current position in [0, 100]
func (s *Slider) Position() float64 {
	return s.position
}

// ClipFraction returns the fraction of the before image's width shown,
// i.e. the clip region [0%, position%]
func (s *Slider) ClipFraction() float64 {
	return s.position / SliderMax
}

// Drag updates position from a horizontal pointer offset within the
// container's bounding box, clamped to [0, 100]
func (s *Slider) Drag(pointerX, containerLeft, containerWidth float64) {
	if containerWidth <= 0 {
		return
	}
	s.position = clamp((pointerX-containerLeft)/containerWidth*SliderMax, SliderMin, SliderMax)
}

// StepLeft moves one keyboard increment left; a no-op at the left edge
func (s *Slider) StepLeft() {
	s.position = clamp(s.position-SliderStep, SliderMin, SliderMax)
}

// StepRight moves one keyboard increment right; a no-op at the right edge
func (s *Slider) StepRight() {
	s.position = clamp(s.position+SliderStep, SliderMin, SliderMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComparisonView pairs a design's image with its "before" counterpart for
// the split-reveal renderer. The before image is the immediate parent's
// rendition when one exists, otherwise the design's reference image.
type ComparisonView struct {
	DesignID  uuid.UUID `json:"design_id"`
	BeforeRef string    `json:"before_ref"`
	AfterRef  string    `json:"after_ref"`

	// Initial divider position, percent from the left edge
	Position float64 `json:"position"`
}

// CompareService builds before/after views from lineage
type CompareService struct {
	lineage *LineageService
	store   DesignReader
	log     *logger.Logger
}

// NewCompareService creates a new compare service
func NewCompareService(lineage *LineageService, store DesignReader, log *logger.Logger) *CompareService {
	return &CompareService{
		lineage: lineage,
		store:   store,
		log:     log,
	}
}

// For builds the comparison view for a design against its immediate parent
func (s *CompareService) For(ctx context.Context, id uuid.UUID) (*ComparisonView, error) {
	design, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !design.IsReady() {
		return nil, fmt.Errorf("design %s has no rendered image yet: %w", id, models.ErrNotReady)
	}

	before := ""
	if design.ParentID != nil {
		ancestors, err := s.lineage.Walk(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(ancestors) > 0 {
			parent := ancestors[len(ancestors)-1]
			if parent.IsReady() {
				before = *parent.ImageRef
			}
		}
	}

	// Roots (and orphans whose parent is gone) compare against their
	// reference image instead
	if before == "" && design.ReferenceImageRef != nil {
		before = *design.ReferenceImageRef
	}

	if before == "" {
		return nil, fmt.Errorf("design %s has nothing to compare against: %w", id, models.ErrNotFound)
	}

	return &ComparisonView{
		DesignID:  design.ID,
		BeforeRef: before,
		AfterRef:  *design.ImageRef,
		Position:  SliderInitial,
	}, nil
}
