// Package crdtpatch implements the patch interpreter: the pure function
// that folds a Patch into a crdt.Snapshot, and the wire shapes exchanged
// with the backend (change records and patches).
package crdtpatch

import (
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
)

// ValueDiff is a leaf of a patch's candidate set: either a primitive
// (ObjectRef == "") or a reference to a nested object (ObjectRef names it).
// A referenced object's own changes, if any, travel as their own entry in
// the enclosing Patch's Nodes map — ValueDiff never embeds a child diff, so
// an object whose reference is merely being relayed through an unrelated
// write never needs a diff entry of its own.
type ValueDiff struct {
	Primitive interface{}
	Datatype  common.Datatype
	ObjectRef common.ObjectID
}

// EditKind is the closed set of list/text edit actions.
type EditKind string

const (
	EditInsert      EditKind = "insert"
	EditMultiInsert EditKind = "multi-insert"
	EditUpdate      EditKind = "update"
	EditRemove      EditKind = "remove"
)

// Edit is one entry in a list/text NodeDiff's ordered edit script.
type Edit struct {
	Kind EditKind

	// insert / multi-insert / update
	Index  int
	ElemID common.ElemID

	// update
	OpID  common.OpID
	Value *ValueDiff

	// multi-insert
	Values   []ValueDiff
	RunStart common.OpID // first OpID of the inserted run; subsequent ids are contiguous

	// remove
	Count int
}

// NodeDiff describes how one object in the tree changes. For maps and
// tables, Props carries, per key (table: per row id rendered as a string),
// the full candidate set as OpID -> ValueDiff; an empty map for a key
// signals removal. For lists and text, Edits is the ordered edit script.
type NodeDiff struct {
	ObjectID common.ObjectID
	Kind     crdt.ObjectKind
	Props    map[string]map[common.OpID]ValueDiff
	Edits    []Edit
}

// Patch is the frontend's input describing how to transform one snapshot
// into the next: the backend-authoritative bookkeeping plus one NodeDiff
// per touched object, keyed by its id. Objects absent from Nodes are left
// untouched and keep their pointer identity from the prior snapshot.
type Patch struct {
	Actor *common.ActorID
	Seq   *uint64
	Clock map[common.ActorID]uint64
	Deps  []common.OpID
	MaxOp uint64
	Nodes map[common.ObjectID]*NodeDiff
}
