package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlider_StartsCentered(t *testing.T) {
	s := NewSlider()
	assert.Equal(t, 50.0, s.Position())
	assert.Equal(t, 0.5, s.ClipFraction())
}

func TestSlider_DragClampsToBounds(t *testing.T) {
	s := NewSlider()

	// Pointer left of the container
	s.Drag(-200, 0, 400)
	assert.Equal(t, 0.0, s.Position())

	// Pointer right of the container
	s.Drag(900, 0, 400)
	assert.Equal(t, 100.0, s.Position())

	// Pointer at 25% of the width
	s.Drag(100, 0, 400)
	assert.Equal(t, 25.0, s.Position())

	// Offset container
	s.Drag(350, 100, 500)
	assert.Equal(t, 50.0, s.Position())
}

func TestSlider_DragIgnoresDegenerateWidth(t *testing.T) {
	s := NewSlider()
	s.Drag(10, 0, 0)
	assert.Equal(t, 50.0, s.Position(), "zero-width container changes nothing")
}

func TestSlider_StepsClampAtEdges(t *testing.T) {
	s := NewSlider()

	s.StepRight()
	assert.Equal(t, 55.0, s.Position())

	for i := 0; i < 20; i++ {
		s.StepRight()
	}
	assert.Equal(t, 100.0, s.Position(), "right edge is a hard stop")

	s.StepRight()
	assert.Equal(t, 100.0, s.Position(), "further steps are no-ops")

	for i := 0; i < 25; i++ {
		s.StepLeft()
	}
	assert.Equal(t, 0.0, s.Position())

	s.StepLeft()
	assert.Equal(t, 0.0, s.Position())
}

func TestCompare_AgainstParent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	chain := seedChain(store, "ana", 2)

	lineage := NewLineageService(store, nil, 0, testLogger())
	svc := NewCompareService(lineage, store, testLogger())

	view, err := svc.For(ctx, chain[1].ID)
	require.NoError(t, err)
	assert.Equal(t, *chain[0].ImageRef, view.BeforeRef)
	assert.Equal(t, *chain[1].ImageRef, view.AfterRef)
	assert.Equal(t, SliderInitial, view.Position)
}

func TestCompare_RootFallsBackToReference(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	img, reference := "blob-img", "blob-inspiration"
	root := store.seed(&models.Design{
		OwnerID:           "ana",
		StudioID:          uuid.New(),
		ImageRef:          &img,
		ReferenceImageRef: &reference,
	})

	lineage := NewLineageService(store, nil, 0, testLogger())
	svc := NewCompareService(lineage, store, testLogger())

	view, err := svc.For(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "blob-inspiration", view.BeforeRef)
}

func TestCompare_NothingToCompare(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	img := "blob-img"
	root := store.seed(&models.Design{OwnerID: "ana", StudioID: uuid.New(), ImageRef: &img})

	lineage := NewLineageService(store, nil, 0, testLogger())
	svc := NewCompareService(lineage, store, testLogger())

	_, err := svc.For(ctx, root.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCompare_UnreadyDesign(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	design := store.seed(&models.Design{OwnerID: "ana", StudioID: uuid.New(), Status: models.StatusPending})

	lineage := NewLineageService(store, nil, 0, testLogger())
	svc := NewCompareService(lineage, store, testLogger())

	_, err := svc.For(ctx, design.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotReady))
}
