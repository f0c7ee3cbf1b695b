package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBranchFixture(store *memStore, gen *fakeGenerator) *BranchService {
	return newBranchFixtureWithKeys(store, gen, nil)
}

func newBranchFixtureWithKeys(store *memStore, gen *fakeGenerator, keys *fakeKeyStore) *BranchService {
	log := testLogger()
	designs := NewDesignService(store, &clients.NoopBlobStore{}, nil, nil, log)
	if keys == nil {
		return NewBranchService(store, designs, gen, nil, log)
	}
	return NewBranchService(store, designs, gen, keys, log)
}

func TestBranch_CreatesChildAfterGeneration(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	gen := &fakeGenerator{imageRef: "blob-new"}
	svc := newBranchFixture(store, gen)

	child, err := svc.Branch(ctx, "ana", source.ID, &BranchRequest{Prompt: strPtr("more shading")})
	require.NoError(t, err)

	require.NotNil(t, child.ParentID)
	assert.Equal(t, source.ID, *child.ParentID)
	assert.Equal(t, "ana", child.OwnerID)
	assert.Equal(t, source.StudioID, child.StudioID)
	require.NotNil(t, child.ImageRef)
	assert.Equal(t, "blob-new", *child.ImageRef)
	assert.Equal(t, models.StatusPending, child.Status)
	assert.Equal(t, 1, gen.calls)

	// The generator saw the source's image as the reference
	require.NotNil(t, gen.lastReq)
	assert.Equal(t, *source.ImageRef, gen.lastReq.ReferenceImageRef)
	assert.Equal(t, "more shading", gen.lastReq.Prompt)
}

func TestBranch_SourceNeverMutated(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	svc := newBranchFixture(store, &fakeGenerator{imageRef: "blob-new"})

	_, err := svc.Branch(ctx, "ana", source.ID, nil)
	require.NoError(t, err)

	after, err := store.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ImageRef, after.ImageRef)
	assert.Equal(t, source.ParentID, after.ParentID)
	assert.Equal(t, source.Prompt, after.Prompt)
	assert.Equal(t, source.UpdatedAt, after.UpdatedAt)
}

func TestBranch_NotReadySource(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := store.seed(&models.Design{
		OwnerID:  "ana",
		StudioID: uuid.New(),
		Status:   models.StatusPending,
	})

	gen := &fakeGenerator{imageRef: "blob-new"}
	svc := newBranchFixture(store, gen)

	_, err := svc.Branch(ctx, "ana", source.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotReady))
	assert.Zero(t, gen.calls, "generation never starts for an unready source")
}

func TestBranch_InvisibleSourceLooksMissing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	svc := newBranchFixture(store, &fakeGenerator{imageRef: "blob-new"})

	_, err := svc.Branch(ctx, "bob", source.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestBranch_SharedSourceBranchableByOthers(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ref := "blob-src"
	source := store.seed(&models.Design{
		OwnerID:  "ana",
		StudioID: uuid.New(),
		ImageRef: &ref,
		Shared:   true,
	})

	svc := newBranchFixture(store, &fakeGenerator{imageRef: "blob-new"})

	child, err := svc.Branch(ctx, "bob", source.ID, nil)
	require.NoError(t, err)

	// The branch belongs to the brancher but points into the shared lineage
	assert.Equal(t, "bob", child.OwnerID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, source.ID, *child.ParentID)
}

func TestBranch_GenerationFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	svc := newBranchFixture(store, &fakeGenerator{err: errors.New("engine unavailable")})

	_, err := svc.Branch(ctx, "ana", source.ID, nil)
	require.Error(t, err)

	designs, err := store.ListByOwner(ctx, "ana", nil)
	require.NoError(t, err)
	assert.Len(t, designs, 1, "only the source exists; no dangling child row")
}

func TestBranch_IdempotencyKeyReplaysOriginal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	gen := &fakeGenerator{imageRef: "blob-new"}
	svc := newBranchFixtureWithKeys(store, gen, newFakeKeyStore())

	req := &BranchRequest{IdempotencyKey: "retry-1"}
	first, err := svc.Branch(ctx, "ana", source.ID, req)
	require.NoError(t, err)

	second, err := svc.Branch(ctx, "ana", source.ID, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same key returns the original design")
	assert.Equal(t, 1, gen.calls, "replay never re-generates")

	designs, err := store.ListByOwner(ctx, "ana", nil)
	require.NoError(t, err)
	assert.Len(t, designs, 2, "source plus exactly one branch")
}

func TestBranch_FailedGenerationReleasesIdempotencyClaim(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	gen := &fakeGenerator{err: errors.New("engine unavailable")}
	keys := newFakeKeyStore()
	svc := newBranchFixtureWithKeys(store, gen, keys)

	req := &BranchRequest{IdempotencyKey: "retry-2"}
	_, err := svc.Branch(ctx, "ana", source.ID, req)
	require.Error(t, err)

	// The failed attempt must not leave its claim behind; retrying with
	// the same key succeeds once the engine recovers
	gen.err = nil
	gen.imageRef = "blob-new"

	child, err := svc.Branch(ctx, "ana", source.ID, req)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, source.ID, *child.ParentID)
	assert.Equal(t, 2, gen.calls)
}

func TestBranch_PendingClaimRejectsConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	keys := newFakeKeyStore()
	svc := newBranchFixtureWithKeys(store, &fakeGenerator{imageRef: "blob-new"}, keys)

	// Another request holds the claim and has not finished yet
	wasSet, err := keys.SetNX(ctx, idempotencyKey("ana", "retry-3"), "pending", branchIdempotencyTTL)
	require.NoError(t, err)
	require.True(t, wasSet)

	_, err = svc.Branch(ctx, "ana", source.ID, &BranchRequest{IdempotencyKey: "retry-3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// The rejected duplicate must not release the in-flight request's claim
	value, err := keys.Get(ctx, idempotencyKey("ana", "retry-3"))
	require.NoError(t, err)
	assert.Equal(t, "pending", value)
}

func TestPrepare_DefaultsFromSource(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ref := "blob-src"
	source := store.seed(&models.Design{
		OwnerID:  "ana",
		StudioID: uuid.New(),
		Prompt:   strPtr("koi on forearm"),
		ImageRef: &ref,
	})

	svc := newBranchFixture(store, &fakeGenerator{})

	payload, err := svc.Prepare(ctx, "ana", source.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, source.ID, payload.ParentID)
	assert.Equal(t, "koi on forearm", payload.Prompt)
	assert.Equal(t, "blob-src", payload.ReferenceImageRef)
}

func TestPrepare_Overrides(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	source := seedChain(store, "ana", 1)[0]

	svc := newBranchFixture(store, &fakeGenerator{})

	payload, err := svc.Prepare(ctx, "ana", source.ID, &BranchRequest{
		Prompt:            strPtr("add waves"),
		ReferenceImageRef: strPtr("blob-other"),
	})
	require.NoError(t, err)
	assert.Equal(t, "add waves", payload.Prompt)
	assert.Equal(t, "blob-other", payload.ReferenceImageRef)
}
