package crdtpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
)

func opID(counter uint64, actor string) common.OpID {
	return common.OpID{Counter: counter, Actor: common.ActorID(actor)}
}

func nodes(diffs ...*NodeDiff) map[common.ObjectID]*NodeDiff {
	out := make(map[common.ObjectID]*NodeDiff, len(diffs))
	for _, d := range diffs {
		out[d.ObjectID] = d
	}
	return out
}

func TestInterpretSingleAssignment(t *testing.T) {
	snap := crdt.Empty()
	patch := &Patch{
		MaxOp: 1,
		Nodes: nodes(&NodeDiff{
			ObjectID: common.RootObjectID,
			Kind:     crdt.KindMap,
			Props: map[string]map[common.OpID]ValueDiff{
				"bird": {
					opID(1, "aa"): {Primitive: "magpie", Datatype: common.DatatypeStr},
				},
			},
		}),
	}
	next, err := Interpret(snap, patch)
	require.NoError(t, err)

	v, ok := next.Root.Get("bird")
	require.True(t, ok)
	assert.Equal(t, "magpie", v.Primitive)
}

func TestInterpretConflictResolvesToGreatestOpID(t *testing.T) {
	snap := crdt.Empty()
	patch := &Patch{
		MaxOp: 1,
		Nodes: nodes(&NodeDiff{
			ObjectID: common.RootObjectID,
			Kind:     crdt.KindMap,
			Props: map[string]map[common.OpID]ValueDiff{
				"bird": {
					opID(1, "aa"): {Primitive: "magpie", Datatype: common.DatatypeStr},
					opID(1, "bb"): {Primitive: "blackbird", Datatype: common.DatatypeStr},
				},
			},
		}),
	}
	next, err := Interpret(snap, patch)
	require.NoError(t, err)

	v, ok := next.Root.Get("bird")
	require.True(t, ok)
	assert.Equal(t, "blackbird", v.Primitive)

	conflicts := next.Root.Conflicts("bird")
	require.Len(t, conflicts, 2)
	assert.Equal(t, "magpie", conflicts[opID(1, "aa")].Primitive)
	assert.Equal(t, "blackbird", conflicts[opID(1, "bb")].Primitive)
}

func TestInterpretNestedMapCreation(t *testing.T) {
	snap := crdt.Empty()
	childID := common.NewObjectID(opID(1, "aa"))
	patch := &Patch{
		MaxOp: 2,
		Nodes: nodes(
			&NodeDiff{
				ObjectID: common.RootObjectID,
				Kind:     crdt.KindMap,
				Props: map[string]map[common.OpID]ValueDiff{
					"birds": {
						opID(1, "aa"): {ObjectRef: childID},
					},
				},
			},
			&NodeDiff{
				ObjectID: childID,
				Kind:     crdt.KindMap,
				Props: map[string]map[common.OpID]ValueDiff{
					"wrens": {opID(2, "aa"): {Primitive: int64(3), Datatype: common.DatatypeInt}},
				},
			},
		),
	}
	next, err := Interpret(snap, patch)
	require.NoError(t, err)

	v, ok := next.Root.Get("birds")
	require.True(t, ok)
	require.True(t, v.IsObject())
	assert.Equal(t, childID, v.ObjectRef)

	child, ok := next.Get(childID).(*crdt.MapObject)
	require.True(t, ok)
	wrens, ok := child.Get("wrens")
	require.True(t, ok)
	assert.Equal(t, int64(3), wrens.Primitive)
}

func TestInterpretStructuralSharingUntouchedObjects(t *testing.T) {
	snap := crdt.Empty()
	childID := common.NewObjectID(opID(1, "aa"))
	createPatch := &Patch{
		Nodes: nodes(
			&NodeDiff{
				ObjectID: common.RootObjectID,
				Kind:     crdt.KindMap,
				Props: map[string]map[common.OpID]ValueDiff{
					"a": {opID(1, "aa"): {ObjectRef: childID}},
				},
			},
			&NodeDiff{ObjectID: childID, Kind: crdt.KindMap},
		),
	}
	snap, err := Interpret(snap, createPatch)
	require.NoError(t, err)
	before := snap.Cache[childID]

	unrelatedPatch := &Patch{
		Nodes: nodes(&NodeDiff{
			ObjectID: common.RootObjectID,
			Kind:     crdt.KindMap,
			Props: map[string]map[common.OpID]ValueDiff{
				"b": {opID(2, "aa"): {Primitive: "x", Datatype: common.DatatypeStr}},
			},
		}),
	}
	next, err := Interpret(snap, unrelatedPatch)
	require.NoError(t, err)

	after := next.Cache[childID]
	assert.Same(t, before, after, "untouched object must be reference-identical across snapshots")
}

func TestInterpretListMultiInsertAndRemove(t *testing.T) {
	snap := crdt.Empty()
	listID := common.NewObjectID(opID(1, "aa"))
	create := &Patch{
		Nodes: nodes(
			&NodeDiff{
				ObjectID: common.RootObjectID,
				Kind:     crdt.KindMap,
				Props: map[string]map[common.OpID]ValueDiff{
					"items": {opID(1, "aa"): {ObjectRef: listID}},
				},
			},
			&NodeDiff{
				ObjectID: listID,
				Kind:     crdt.KindList,
				Edits: []Edit{
					{
						Kind:     EditMultiInsert,
						Index:    0,
						ElemID:   common.NewElemID(opID(2, "aa")),
						RunStart: opID(2, "aa"),
						Values: []ValueDiff{
							{Primitive: "finch", Datatype: common.DatatypeStr},
							{Primitive: "robin", Datatype: common.DatatypeStr},
						},
					},
				},
			},
		),
	}
	snap, err := Interpret(snap, create)
	require.NoError(t, err)

	list := snap.Cache[listID].(*crdt.ListObject)
	require.Equal(t, 2, list.Len())
	v0, _ := list.Get(0)
	v1, _ := list.Get(1)
	assert.Equal(t, "finch", v0.Primitive)
	assert.Equal(t, "robin", v1.Primitive)

	remove := &Patch{
		Nodes: nodes(&NodeDiff{
			ObjectID: listID,
			Kind:     crdt.KindList,
			Edits:    []Edit{{Kind: EditRemove, Index: 0, Count: 1}},
		}),
	}
	snap, err = Interpret(snap, remove)
	require.NoError(t, err)
	list = snap.Cache[listID].(*crdt.ListObject)
	require.Equal(t, 1, list.Len())
	v0, _ = list.Get(0)
	assert.Equal(t, "robin", v0.Primitive)
}

func TestInterpretEmptyCandidateSetRemovesKey(t *testing.T) {
	snap := crdt.Empty()
	set := &Patch{
		Nodes: nodes(&NodeDiff{
			ObjectID: common.RootObjectID,
			Kind:     crdt.KindMap,
			Props: map[string]map[common.OpID]ValueDiff{
				"bird": {opID(1, "aa"): {Primitive: "magpie", Datatype: common.DatatypeStr}},
			},
		}),
	}
	snap, err := Interpret(snap, set)
	require.NoError(t, err)
	_, ok := snap.Root.Get("bird")
	require.True(t, ok)

	del := &Patch{
		Nodes: nodes(&NodeDiff{
			ObjectID: common.RootObjectID,
			Kind:     crdt.KindMap,
			Props: map[string]map[common.OpID]ValueDiff{
				"bird": {},
			},
		}),
	}
	snap, err = Interpret(snap, del)
	require.NoError(t, err)
	_, ok = snap.Root.Get("bird")
	assert.False(t, ok)
}
