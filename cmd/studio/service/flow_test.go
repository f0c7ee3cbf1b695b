package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the whole lifecycle: save a design, branch it twice, walk the
// chain, delete the middle generation, walk again and see truncated history.
func TestLifecycle_CreateBranchWalkDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	log := testLogger()

	blobs := &clients.NoopBlobStore{}
	designs := NewDesignService(store, blobs, nil, nil, log)
	branches := NewBranchService(store, designs, &fakeGenerator{imageRef: "blob-gen-1"}, nil, log)
	lineage := NewLineageService(store, nil, 0, log)

	rootRef := "blob-root"
	root, err := designs.Create(ctx, "ana", &CreateDesignRequest{
		StudioID: uuid.New(),
		Prompt:   strPtr("koi on forearm"),
		ImageRef: &rootRef,
	})
	require.NoError(t, err)

	mid, err := branches.Branch(ctx, "ana", root.ID, &BranchRequest{Prompt: strPtr("add waves")})
	require.NoError(t, err)

	branches.generator = &fakeGenerator{imageRef: "blob-gen-2"}
	leaf, err := branches.Branch(ctx, "ana", mid.ID, &BranchRequest{Prompt: strPtr("more color")})
	require.NoError(t, err)

	ancestors, err := lineage.Walk(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, root.ID, ancestors[0].ID)
	assert.Equal(t, mid.ID, ancestors[1].ID)

	// Deleting the middle generation releases its blob and truncates every
	// descendant's visible history at the gap
	require.NoError(t, designs.Delete(ctx, "ana", mid.ID, false))
	assert.Contains(t, blobs.Released, "blob-gen-1")

	truncated, err := lineage.Walk(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Empty(t, truncated, "gap right above the leaf leaves no reachable ancestors")

	// The leaf itself is intact and still branchable
	view, err := lineage.View(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, leaf.ID, view.Current.ID)
}
