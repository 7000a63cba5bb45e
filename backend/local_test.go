package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtedit"
	"github.com/homveloper/luvjson/crdtpatch"
)

const actorA = common.ActorID("aa")

func changeRequest(ctx *crdtedit.Context, seq uint64, startOp uint64) crdtpatch.ChangeRequest {
	return crdtpatch.ChangeRequest{
		Actor:   actorA,
		Seq:     seq,
		StartOp: startOp,
		Ops:     ctx.Ops(),
	}
}

func TestLocalBackendInitReturnsEmptySnapshot(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap, ok := state.(*crdt.Snapshot)
	require.True(t, ok)
	_, hasBird := snap.Root.Get("bird")
	assert.False(t, hasBird)
}

func TestLocalBackendAppliesSimpleSet(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap := state.(*crdt.Snapshot)

	ctx := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx.SetMapKey(nil, "bird", "magpie"))

	req := changeRequest(ctx, 1, snap.State.MaxOp+1)
	newState, patch, encoded, err := b.ApplyLocalChange(state, req)
	require.NoError(t, err)
	require.NotNil(t, patch)
	require.NotEmpty(t, encoded)

	next := newState.(*crdt.Snapshot)
	v, ok := next.Root.Get("bird")
	require.True(t, ok)
	assert.Equal(t, "magpie", v.Primitive)
}

func TestLocalBackendReconstructsNestedMapCreation(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap := state.(*crdt.Snapshot)

	ctx := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx.SetMapKey(nil, "profile", crdtedit.MapInit{"name": "ash"}))
	require.NoError(t, ctx.SetMapKey([]string{"profile"}, "age", int64(7)))

	req := changeRequest(ctx, 1, snap.State.MaxOp+1)
	newState, _, _, err := b.ApplyLocalChange(state, req)
	require.NoError(t, err)

	next := newState.(*crdt.Snapshot)
	profileVal, ok := next.Root.Get("profile")
	require.True(t, ok)
	require.True(t, profileVal.IsObject())
	profile, ok := next.Get(profileVal.ObjectRef).(*crdt.MapObject)
	require.True(t, ok)
	name, ok := profile.Get("name")
	require.True(t, ok)
	assert.Equal(t, "ash", name.Primitive)
	age, ok := profile.Get("age")
	require.True(t, ok)
	assert.Equal(t, int64(7), age.Primitive)
}

func TestLocalBackendReconstructsListSpliceAndDelete(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap := state.(*crdt.Snapshot)

	setup := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, setup.SetMapKey(nil, "items", crdtedit.ListInit{}))
	req1 := changeRequest(setup, 1, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req1)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	ctx := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx.Splice([]string{"items"}, 0, 0, []interface{}{"finch", "robin", "wren"}))
	req2 := changeRequest(ctx, 2, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req2)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	itemsVal, _ := snap.Root.Get("items")
	list, ok := snap.Get(itemsVal.ObjectRef).(*crdt.ListObject)
	require.True(t, ok)
	require.Equal(t, 3, list.Len())
	v1, _ := list.Get(1)
	assert.Equal(t, "robin", v1.Primitive)

	ctx2 := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx2.Splice([]string{"items"}, 1, 1, nil))
	req3 := changeRequest(ctx2, 3, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req3)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	list2, ok := snap.Get(itemsVal.ObjectRef).(*crdt.ListObject)
	require.True(t, ok)
	require.Equal(t, 2, list2.Len())
	v0, _ := list2.Get(0)
	v1b, _ := list2.Get(1)
	assert.Equal(t, "finch", v0.Primitive)
	assert.Equal(t, "wren", v1b.Primitive)
}

func TestLocalBackendReconstructsIncrement(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap := state.(*crdt.Snapshot)

	setup := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, setup.SetMapKey(nil, "count", common.Counter(0)))
	req1 := changeRequest(setup, 1, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req1)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	ctx := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx.Increment(nil, "count", 3))
	require.NoError(t, ctx.Increment(nil, "count", 4))
	req2 := changeRequest(ctx, 2, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req2)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	v, ok := snap.Root.Get("count")
	require.True(t, ok)
	assert.Equal(t, common.Counter(7), v.Primitive)
}

func TestLocalBackendReconstructsTableRowLifecycle(t *testing.T) {
	b := NewLocalBackend()
	state, err := b.Init()
	require.NoError(t, err)
	snap := state.(*crdt.Snapshot)

	setup := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, setup.SetMapKey(nil, "people", crdtedit.TableInit{}))
	req1 := changeRequest(setup, 1, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req1)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	ctx := crdtedit.NewContext(*snap, actorA)
	rowID, err := ctx.AddTableRow([]string{"people"}, map[string]interface{}{"name": "ash"})
	require.NoError(t, err)
	req2 := changeRequest(ctx, 2, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req2)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	peopleVal, _ := snap.Root.Get("people")
	table, ok := snap.Get(peopleVal.ObjectRef).(*crdt.TableObject)
	require.True(t, ok)
	require.Len(t, table.RowIDs(), 1)

	ctx2 := crdtedit.NewContext(*snap, actorA)
	require.NoError(t, ctx2.DeleteTableRow([]string{"people"}, rowID))
	req3 := changeRequest(ctx2, 3, snap.State.MaxOp+1)
	state, _, _, err = b.ApplyLocalChange(state, req3)
	require.NoError(t, err)
	snap = state.(*crdt.Snapshot)

	table2, ok := snap.Get(peopleVal.ObjectRef).(*crdt.TableObject)
	require.True(t, ok)
	assert.Len(t, table2.RowIDs(), 0)
}
