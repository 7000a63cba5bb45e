package crdtpatch

import "github.com/homveloper/luvjson/common"

// EncodedChange is the backend's opaque serialized form of a change record,
// returned from applyLocalChange and retrievable via GetLastLocalChange.
// The frontend never inspects its contents.
type EncodedChange []byte

// OpAction is the closed set of change-record operation actions.
type OpAction string

const (
	ActionMakeMap  OpAction = "makeMap"
	ActionMakeList OpAction = "makeList"
	ActionMakeText OpAction = "makeText"
	ActionMakeTable OpAction = "makeTable"
	ActionSet     OpAction = "set"
	ActionDel     OpAction = "del"
	ActionInc     OpAction = "inc"
)

// OpKey is a change-record op's target key: a string for map/table keys, or
// an ElemID for list/text positions (HeadElemID for insertion at the
// front).
type OpKey struct {
	MapKey string
	Elem   common.ElemID
	IsElem bool
}

// MapKeyOf constructs a string-keyed OpKey.
func MapKeyOf(key string) OpKey { return OpKey{MapKey: key} }

// ElemKeyOf constructs an ElemID-keyed OpKey.
func ElemKeyOf(elem common.ElemID) OpKey { return OpKey{Elem: elem, IsElem: true} }

// Op is one entry in a Change's ops list, discriminated by Action.
type Op struct {
	Action OpAction
	Obj    common.ObjectID
	Key    OpKey
	Insert bool

	// set
	Value    interface{}
	Values   []interface{}
	Datatype common.Datatype

	// del
	MultiOp int // number of consecutive positions/values this del removes; 0 means 1

	// inc
	Delta int64

	// predecessors: the OpIDs this op overwrites (empty for insertions)
	Pred []common.OpID
}

// Change is the change record sent from the frontend to the backend:
// { actor, seq, startOp, time, message, deps, ops[] }.
type Change struct {
	Actor   common.ActorID
	Seq     uint64
	StartOp uint64
	Time    int64
	Message string
	Deps    []common.OpID
	Ops     []Op
}

// ChangeRequest is the payload handed to backend.Backend.ApplyLocalChange;
// today it is simply the Change, named distinctly so a future backend can
// extend the envelope without touching Change's shape.
type ChangeRequest = Change
