// Package crdt implements the document snapshot: an immutable tree of Map,
// List, Text, and Table objects, each carrying the per-key/index conflict
// metadata needed to resolve concurrent writes deterministically.
package crdt

import (
	"github.com/homveloper/luvjson/common"
)

// ObjectKind is the closed set of object kinds a Snapshot tree may contain.
type ObjectKind string

const (
	KindMap   ObjectKind = "map"
	KindList  ObjectKind = "list"
	KindText  ObjectKind = "text"
	KindTable ObjectKind = "table"
)

// Object is the shared read surface of every object kind: identity and the
// kind discriminator needed by the interpreter's type switches.
type Object interface {
	ID() common.ObjectID
	Kind() ObjectKind

	// Clone returns a shallow, independent copy used by the patch
	// interpreter's clone-on-first-touch scratch map.
	Clone() Object
}

// Value is a single resolved cell: either a primitive (Datatype != "" and
// ObjectRef == "") or a reference to a child object (ObjectRef != "").
type Value struct {
	Datatype  common.Datatype
	Primitive interface{}
	ObjectRef common.ObjectID
}

// IsObject reports whether this value is a reference to a child object
// rather than a primitive.
func (v Value) IsObject() bool { return v.ObjectRef != "" }

// Candidate is one non-superseded write to a key/index, tagged by the OpID
// that produced it.
type Candidate struct {
	OpID  common.OpID
	Value Value
}

// resolve returns the candidate with the greatest OpID, and ok=false when
// candidates is empty (the key/index is absent).
func resolve(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.OpID.Less(c.OpID) {
			best = c
		}
	}
	return best, true
}

func cloneCandidates(in []Candidate) []Candidate {
	out := make([]Candidate, len(in))
	copy(out, in)
	return out
}

// NewObjectByKind constructs an empty object of the given kind with the
// given identity, as needed when the interpreter encounters a diff node for
// an object not yet present in the cache (created by a make* op in the same
// or an earlier patch).
func NewObjectByKind(kind ObjectKind, id common.ObjectID) (Object, error) {
	switch kind {
	case KindMap:
		return NewMapObject(id), nil
	case KindList:
		return NewListObject(id), nil
	case KindText:
		return NewTextObject(id), nil
	case KindTable:
		return NewTableObject(id), nil
	default:
		return nil, common.ErrInvalidObjectKind{Kind: string(kind)}
	}
}
