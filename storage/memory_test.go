package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/crdtpatch"
)

func TestMemoryAdapterAppendAndLoadChangesPreservesOrder(t *testing.T) {
	a := NewMemoryAdapter()
	ctx := context.Background()

	require.NoError(t, a.AppendChange(ctx, "doc-1", 2, crdtpatch.EncodedChange("two")))
	require.NoError(t, a.AppendChange(ctx, "doc-1", 1, crdtpatch.EncodedChange("one")))

	changes, err := a.LoadChanges(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "one", string(changes[0]))
	assert.Equal(t, "two", string(changes[1]))
}

func TestMemoryAdapterLoadChangesOnUnknownDocumentIsEmpty(t *testing.T) {
	a := NewMemoryAdapter()
	changes, err := a.LoadChanges(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestMemoryAdapterSnapshotRoundTrip(t *testing.T) {
	a := NewMemoryAdapter()
	ctx := context.Background()

	_, ok, err := a.LoadSnapshot(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.SaveSnapshot(ctx, "doc-1", []byte(`{"bird":"finch"}`)))
	snap, ok, err := a.LoadSnapshot(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"bird":"finch"}`, string(snap))
}

func TestMemoryAdapterListAndDeleteDocument(t *testing.T) {
	a := NewMemoryAdapter()
	ctx := context.Background()

	require.NoError(t, a.AppendChange(ctx, "doc-a", 1, crdtpatch.EncodedChange("x")))
	require.NoError(t, a.AppendChange(ctx, "doc-b", 1, crdtpatch.EncodedChange("y")))

	ids, err := a.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-a", "doc-b"}, ids)

	require.NoError(t, a.DeleteDocument(ctx, "doc-a"))
	ids, err = a.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-b"}, ids)
}

func TestMemoryAdapterClose(t *testing.T) {
	a := NewMemoryAdapter()
	assert.NoError(t, a.Close())
}
