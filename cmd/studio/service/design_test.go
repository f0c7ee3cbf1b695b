package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/models"
	"github.com/inkwell/studio/common/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDesignFixture(store *memStore) (*DesignService, *clients.NoopBlobStore) {
	blobs := &clients.NoopBlobStore{}
	return NewDesignService(store, blobs, nil, nil, testLogger()), blobs
}

func TestParseUpdate_MutableFields(t *testing.T) {
	update, err := ParseUpdate([]byte(`{"is_starred": true, "status": "confirmed"}`))
	require.NoError(t, err)
	require.NotNil(t, update.IsStarred)
	assert.True(t, *update.IsStarred)
	require.NotNil(t, update.Status)
	assert.Equal(t, models.StatusConfirmed, *update.Status)
}

func TestParseUpdate_ImmutableFieldsRejected(t *testing.T) {
	for _, field := range []string{"parent_id", "image_ref", "owner_id", "studio_id", "id", "created_at"} {
		t.Run(field, func(t *testing.T) {
			_, err := ParseUpdate([]byte(`{"` + field + `": "anything"}`))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrImmutableField))
		})
	}
}

func TestParseUpdate_UnknownFieldRejected(t *testing.T) {
	_, err := ParseUpdate([]byte(`{"favourite_colour": "teal"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestParseUpdate_NullCollectionClearsGroup(t *testing.T) {
	update, err := ParseUpdate([]byte(`{"collection_id": null}`))
	require.NoError(t, err)
	assert.True(t, update.ClearGroup)
	assert.Nil(t, update.CollectionID)
}

func TestParseUpdate_InvalidStatus(t *testing.T) {
	_, err := ParseUpdate([]byte(`{"status": "archived"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCreate_ValidatesParentLink(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newDesignFixture(store)

	missing := uuid.New()
	_, err := svc.Create(ctx, "ana", &CreateDesignRequest{
		StudioID: uuid.New(),
		ParentID: &missing,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGet_Visibility(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newDesignFixture(store)

	private := seedChain(store, "ana", 1)[0]

	_, err := svc.Get(ctx, "ana", private.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", private.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound), "private designs look missing to others")

	ref := "blob-shared"
	shared := store.seed(&models.Design{OwnerID: "ana", StudioID: uuid.New(), ImageRef: &ref, Shared: true})
	_, err = svc.Get(ctx, "bob", shared.ID)
	assert.NoError(t, err)
}

func TestUpdate_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newDesignFixture(store)

	ref := "blob-shared"
	design := store.seed(&models.Design{OwnerID: "ana", StudioID: uuid.New(), ImageRef: &ref, Shared: true})

	_, err := svc.Update(ctx, "bob", design.ID, starUpdate(true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrForbidden), "visible but not owned")

	updated, err := svc.Update(ctx, "ana", design.ID, starUpdate(true))
	require.NoError(t, err)
	assert.True(t, updated.IsStarred)
}

func starUpdate(v bool) *repository.DesignUpdate {
	return &repository.DesignUpdate{IsStarred: &v}
}

func TestDelete_ReleasesAllBlobRefs(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, blobs := newDesignFixture(store)

	img, final, reference := "blob-img", "blob-final", "blob-ref"
	design := store.seed(&models.Design{
		OwnerID:           "ana",
		StudioID:          uuid.New(),
		ImageRef:          &img,
		FinalImageRef:     &final,
		ReferenceImageRef: &reference,
	})

	require.NoError(t, svc.Delete(ctx, "ana", design.ID, false))

	assert.ElementsMatch(t, []string{"blob-img", "blob-final", "blob-ref"}, blobs.Released)

	_, err := store.GetByID(ctx, design.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDelete_OnlyOwnerUnlessAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newDesignFixture(store)

	design := seedChain(store, "ana", 1)[0]

	err := svc.Delete(ctx, "bob", design.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, "bob", design.ID, true), "admin path bypasses ownership")
}

func TestDelete_ChildSurvivesParentDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newDesignFixture(store)

	chain := seedChain(store, "ana", 3)

	require.NoError(t, svc.Delete(ctx, "ana", chain[1].ID, false))

	// The child row is untouched; its parent pointer now dangles and the
	// walker truncates there
	child, err := store.GetByID(ctx, chain[2].ID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, chain[1].ID, *child.ParentID)

	lineage := NewLineageService(store, nil, 0, testLogger())
	ancestors, err := lineage.Walk(ctx, chain[2].ID)
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}
