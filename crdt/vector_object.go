package crdt

import "github.com/homveloper/luvjson/common"

// VectorObject is a fixed-arity LWW tuple, modeled on the teacher's
// LWWVectorNode. Each slot resolves independently like a map key, but by
// integer position. No other package in this module constructs one, and
// crdtpatch.Interpret does not fold diffs into it.
type VectorObject struct {
	id   common.ObjectID
	arity int
	slots map[int][]Candidate
}

// NewVectorObject creates an empty vector object of the given arity.
func NewVectorObject(id common.ObjectID, arity int) *VectorObject {
	return &VectorObject{id: id, arity: arity, slots: make(map[int][]Candidate)}
}

func (v *VectorObject) ID() common.ObjectID { return v.id }
func (v *VectorObject) Kind() ObjectKind    { return "vector" }
func (v *VectorObject) Arity() int          { return v.arity }

func (v *VectorObject) Clone() Object {
	out := &VectorObject{id: v.id, arity: v.arity, slots: make(map[int][]Candidate, len(v.slots))}
	for k, c := range v.slots {
		out.slots[k] = cloneCandidates(c)
	}
	return out
}

// Get returns the resolved value at slot i.
func (v *VectorObject) Get(i int) (Value, bool) {
	return resolveValue(v.slots[i])
}

func resolveValue(cs []Candidate) (Value, bool) {
	c, ok := resolve(cs)
	if !ok {
		return Value{}, false
	}
	return c.Value, true
}

// SetCandidates installs the candidate set for slot i; not for general
// application use (used by the interpreter).
func (v *VectorObject) SetCandidates(slot int, candidates []Candidate) {
	if len(candidates) == 0 {
		delete(v.slots, slot)
		return
	}
	v.slots[slot] = candidates
}
