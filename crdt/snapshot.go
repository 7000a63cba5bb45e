package crdt

import "github.com/homveloper/luvjson/common"

// StateVector is the opaque authoritative bookkeeping a Snapshot carries
// forward: per-actor sequence numbers, the current causal dependency set,
// and the highest operation counter observed locally. The frontend does not
// interpret Clock or Deps beyond passing them through; MaxOp seeds the next
// local OpID counter.
type StateVector struct {
	Clock map[common.ActorID]uint64
	Deps  []common.OpID
	MaxOp uint64
}

// Clone returns an independent copy of sv.
func (sv StateVector) Clone() StateVector {
	out := StateVector{Clock: make(map[common.ActorID]uint64, len(sv.Clock)), MaxOp: sv.MaxOp}
	for k, v := range sv.Clock {
		out.Clock[k] = v
	}
	out.Deps = append([]common.OpID(nil), sv.Deps...)
	return out
}

// Snapshot is an immutable document value: the root Map plus a cache of
// every reachable object by ObjectID, plus the most recent authoritative
// StateVector. Objects untouched between two snapshots are reference-equal,
// giving structural sharing for free.
type Snapshot struct {
	Root  *MapObject
	Cache map[common.ObjectID]Object
	State StateVector

	// Frozen marks every object reachable from this snapshot, and the
	// snapshot's own metadata, read-only: crdtedit.Context refuses to
	// mutate a frozen snapshot's shadow. Interpret does not set or read
	// this field; it is carried forward by the caller that owns the
	// freeze policy (docengine.Doc).
	Frozen bool
}

// Empty returns a snapshot containing only an empty root map and a zeroed
// state vector — the starting point for Init.
func Empty() Snapshot {
	root := NewMapObject(common.RootObjectID)
	cache := map[common.ObjectID]Object{common.RootObjectID: root}
	return Snapshot{
		Root:  root,
		Cache: cache,
		State: StateVector{Clock: map[common.ActorID]uint64{}},
	}
}

// Get looks up an object by id, including the root.
func (s Snapshot) Get(id common.ObjectID) (Object, bool) {
	obj, ok := s.Cache[id]
	return obj, ok
}

// GetConflicts implements the public getConflicts operation for any object
// kind that carries per-key/per-index conflict sets. Returns nil when the
// object kind carries no conflicts (Table) or the set has size < 2.
func (s Snapshot) GetConflicts(id common.ObjectID, key string) map[common.OpID]Value {
	obj, ok := s.Cache[id]
	if !ok {
		return nil
	}
	switch o := obj.(type) {
	case *MapObject:
		return o.Conflicts(key)
	case *ListObject, *TextObject:
		return nil // indexed, not keyed; use ConflictsAtIndex
	}
	return nil
}

// GetConflictsAtIndex is the List/Text analog of GetConflicts.
func (s Snapshot) GetConflictsAtIndex(id common.ObjectID, idx int) map[common.OpID]Value {
	obj, ok := s.Cache[id]
	if !ok {
		return nil
	}
	switch o := obj.(type) {
	case *ListObject:
		return o.ConflictsAt(idx)
	case *TextObject:
		return o.ConflictsAt(idx)
	}
	return nil
}

// GetElementIDs returns the live ElemIDs of a List/Text object, in order.
func (s Snapshot) GetElementIDs(id common.ObjectID) ([]common.ElemID, bool) {
	obj, ok := s.Cache[id]
	if !ok {
		return nil, false
	}
	switch o := obj.(type) {
	case *ListObject:
		return o.ElementIDs(), true
	case *TextObject:
		return o.ElementIDs(), true
	}
	return nil, false
}
