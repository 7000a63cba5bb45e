package crdtedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

const actorA = common.ActorID("aa")

func TestContextSetMapKeyAppliesThroughInterpreter(t *testing.T) {
	base := crdt.Empty()
	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.SetMapKey(nil, "bird", "magpie"))

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)

	v, ok := next.Root.Get("bird")
	require.True(t, ok)
	assert.Equal(t, "magpie", v.Primitive)
}

func TestContextSetMapKeyIdempotentElision(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "bird", "magpie"))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.SetMapKey(nil, "bird", "magpie"))
	assert.True(t, ctx.Empty(), "reassigning the same value should elide the write")
}

func TestContextNestedMapCreationAndPathDescent(t *testing.T) {
	base := crdt.Empty()
	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.SetMapKey(nil, "profile", MapInit{"name": "ash"}))
	require.NoError(t, ctx.SetMapKey([]string{"profile"}, "age", int64(7)))

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)

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

func TestContextDeleteMapKeyNoOpWhenAbsent(t *testing.T) {
	base := crdt.Empty()
	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.DeleteMapKey(nil, "nope"))
	assert.True(t, ctx.Empty())
}

func TestContextIncrementCoalescesAdjacentCalls(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "count", common.Counter(0)))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.Increment(nil, "count", 3))
	require.NoError(t, ctx.Increment(nil, "count", 4))
	assert.Len(t, ctx.Ops(), 1, "adjacent increments to the same key should coalesce into one op")
	assert.Equal(t, int64(7), ctx.Ops()[0].Delta)

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	v, ok := next.Root.Get("count")
	require.True(t, ok)
	assert.Equal(t, common.Counter(7), v.Primitive)
}

func TestContextIncrementRejectsNonCounter(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "bird", "magpie"))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	err = ctx.Increment(nil, "bird", 1)
	assert.Error(t, err)
}

func TestContextSpliceListMultiInsertAndDelete(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "items", ListInit{}))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.Splice([]string{"items"}, 0, 0, []interface{}{"finch", "robin", "wren"}))

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	itemsVal, _ := next.Root.Get("items")
	list, ok := next.Get(itemsVal.ObjectRef).(*crdt.ListObject)
	require.True(t, ok)
	require.Equal(t, 3, list.Len())
	v1, _ := list.Get(1)
	assert.Equal(t, "robin", v1.Primitive)

	ctx2 := NewContext(next, actorA)
	require.NoError(t, ctx2.Splice([]string{"items"}, 1, 1, nil))
	final, err := crdtpatch.Interpret(next, ctx2.Patch())
	require.NoError(t, err)
	list2 := final.Cache[itemsVal.ObjectRef].(*crdt.ListObject)
	require.Equal(t, 2, list2.Len())
	v0, _ := list2.Get(0)
	v1b, _ := list2.Get(1)
	assert.Equal(t, "finch", v0.Primitive)
	assert.Equal(t, "wren", v1b.Primitive)
}

func TestContextSpliceCompositeInsertion(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "items", ListInit{}))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.Splice([]string{"items"}, 0, 0, []interface{}{MapInit{"k": "v"}}))

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	itemsVal, _ := next.Root.Get("items")
	list := next.Cache[itemsVal.ObjectRef].(*crdt.ListObject)
	require.Equal(t, 1, list.Len())
	elemVal, _ := list.Get(0)
	require.True(t, elemVal.IsObject())
	child := next.Cache[elemVal.ObjectRef].(*crdt.MapObject)
	v, ok := child.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v.Primitive)
}

func TestContextTableAddAndDeleteRow(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "people", TableInit{}))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	rowID, err := ctx.AddTableRow([]string{"people"}, map[string]interface{}{"name": "ash"})
	require.NoError(t, err)

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	peopleVal, _ := next.Root.Get("people")
	table := next.Cache[peopleVal.ObjectRef].(*crdt.TableObject)
	require.Len(t, table.RowIDs(), 1)

	ctx2 := NewContext(next, actorA)
	require.NoError(t, ctx2.DeleteTableRow([]string{"people"}, rowID))
	final, err := crdtpatch.Interpret(next, ctx2.Patch())
	require.NoError(t, err)
	table2 := final.Cache[peopleVal.ObjectRef].(*crdt.TableObject)
	assert.Len(t, table2.RowIDs(), 0)
}

func TestContextAddTableRowRejectsPresetID(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "people", TableInit{}))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	_, err = ctx.AddTableRow([]string{"people"}, map[string]interface{}{"id": "not-allowed", "name": "ash"})
	assert.Error(t, err)
}

func TestContextOnFrozenSnapshotRejectsMutation(t *testing.T) {
	base := crdt.Empty()
	base.Frozen = true

	ctx := NewContext(base, actorA)
	err := ctx.SetMapKey(nil, "bird", "magpie")
	assert.Error(t, err)
	assert.True(t, ctx.Empty())
}

func TestContextSetListIndexAtLengthAppends(t *testing.T) {
	base := crdt.Empty()
	setup := NewContext(base, actorA)
	require.NoError(t, setup.SetMapKey(nil, "items", ListInit{"a"}))
	base, err := crdtpatch.Interpret(base, setup.Patch())
	require.NoError(t, err)

	ctx := NewContext(base, actorA)
	require.NoError(t, ctx.SetListIndex([]string{"items"}, 1, "b"))

	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	itemsVal, _ := next.Root.Get("items")
	list := next.Cache[itemsVal.ObjectRef].(*crdt.ListObject)
	require.Equal(t, 2, list.Len())
	v1, _ := list.Get(1)
	assert.Equal(t, "b", v1.Primitive)
}
