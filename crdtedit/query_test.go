package crdtedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

func mustSnapshot(t *testing.T, fn func(ctx *Context) error) crdt.Snapshot {
	t.Helper()
	base := crdt.Empty()
	ctx := NewContext(base, actorA)
	require.NoError(t, fn(ctx))
	next, err := crdtpatch.Interpret(base, ctx.Patch())
	require.NoError(t, err)
	return next
}

func TestQueryGetTopLevelValue(t *testing.T) {
	snap := mustSnapshot(t, func(ctx *Context) error {
		return ctx.SetMapKey(nil, "bird", "magpie")
	})

	q := NewQuery(snap)
	v, err := q.Get([]string{"bird"})
	require.NoError(t, err)
	assert.Equal(t, "magpie", v.Primitive)
}

func TestQueryGetNestedValueThroughMap(t *testing.T) {
	snap := mustSnapshot(t, func(ctx *Context) error {
		if err := ctx.SetMapKey(nil, "profile", MapInit{"name": "ash"}); err != nil {
			return err
		}
		return ctx.SetMapKey([]string{"profile"}, "age", int64(7))
	})

	q := NewQuery(snap)
	v, err := q.Get([]string{"profile", "age"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Primitive)

	obj, err := q.GetObject([]string{"profile"})
	require.NoError(t, err)
	assert.Equal(t, "ash", obj["name"])
	assert.Equal(t, int64(7), obj["age"])
}

func TestQueryGetListAndString(t *testing.T) {
	snap := mustSnapshot(t, func(ctx *Context) error {
		if err := ctx.SetMapKey(nil, "items", ListInit{}); err != nil {
			return err
		}
		if err := ctx.Splice([]string{"items"}, 0, 0, []interface{}{"finch", "robin"}); err != nil {
			return err
		}
		return ctx.SetMapKey(nil, "note", TextInit{})
	})

	q := NewQuery(snap)
	items, err := q.GetList([]string{"items"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"finch", "robin"}, items)

	text, err := q.GetString([]string{"note"})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestQueryGetOnUnknownKeyFails(t *testing.T) {
	snap := mustSnapshot(t, func(ctx *Context) error {
		return ctx.SetMapKey(nil, "bird", "magpie")
	})

	q := NewQuery(snap)
	_, err := q.Get([]string{"nonexistent"})
	assert.Error(t, err)
}

func TestQueryConflictsSurfacesCandidateSet(t *testing.T) {
	base := crdt.Empty()

	opA := common.OpID{Counter: 1, Actor: common.ActorID("aa")}
	opB := common.OpID{Counter: 1, Actor: common.ActorID("bb")}
	patch := &crdtpatch.Patch{
		MaxOp: 1,
		Nodes: map[common.ObjectID]*crdtpatch.NodeDiff{
			common.RootObjectID: {
				ObjectID: common.RootObjectID,
				Kind:     crdt.KindMap,
				Props: map[string]map[common.OpID]crdtpatch.ValueDiff{
					"bird": {
						opA: {Primitive: "finch", Datatype: common.DatatypeStr},
						opB: {Primitive: "robin", Datatype: common.DatatypeStr},
					},
				},
			},
		},
	}
	merged, err := crdtpatch.Interpret(base, patch)
	require.NoError(t, err)

	q := NewQuery(merged)
	conflicts, err := q.Conflicts([]string{"bird"})
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}
