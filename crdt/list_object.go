package crdt

import "github.com/homveloper/luvjson/common"

// ListObject is an ordered sequence of values, addressed both by integer
// index (for the user-visible view) and by stable ElemID (for the
// interpreter and for operations that must survive concurrent reordering).
type ListObject struct {
	seq sequence
}

// NewListObject creates an empty list object with the given identity.
func NewListObject(id common.ObjectID) *ListObject {
	return &ListObject{seq: newSequence(id)}
}

func (l *ListObject) ID() common.ObjectID { return l.seq.id }
func (l *ListObject) Kind() ObjectKind    { return KindList }
func (l *ListObject) Len() int            { return l.seq.Len() }

func (l *ListObject) Clone() Object {
	return &ListObject{seq: l.seq.clone()}
}

// Get returns the resolved value at idx.
func (l *ListObject) Get(idx int) (Value, bool) {
	if idx < 0 || idx >= l.seq.Len() {
		return Value{}, false
	}
	return l.seq.resolvedAt(idx)
}

// ToSlice materializes the resolved values of every position, in order.
func (l *ListObject) ToSlice() []Value {
	out := make([]Value, l.seq.Len())
	for i := range out {
		v, _ := l.seq.resolvedAt(i)
		out[i] = v
	}
	return out
}

// ElemIDAt returns the stable ElemID of logical position idx.
func (l *ListObject) ElemIDAt(idx int) (common.ElemID, bool) {
	if idx < 0 || idx >= l.seq.Len() {
		return "", false
	}
	return l.seq.elemIDAt(idx), true
}

// IndexOfElemID returns the current logical index of elemID, or -1.
func (l *ListObject) IndexOfElemID(id common.ElemID) int { return l.seq.indexOfElemID(id) }

// ConflictsAt returns the candidate set at idx when it has size >= 2.
func (l *ListObject) ConflictsAt(idx int) map[common.OpID]Value { return l.seq.conflictsAt(idx) }

// ResolvedOpIDAt returns the OpID of the resolved candidate at idx.
func (l *ListObject) ResolvedOpIDAt(idx int) (common.OpID, bool) { return l.seq.resolvedOpIDAt(idx) }

// CandidateOpIDsAt returns every OpID currently resolving idx.
func (l *ListObject) CandidateOpIDsAt(idx int) []common.OpID { return l.seq.candidateOpIDsAt(idx) }

// ElementIDs returns every live ElemID, in order.
func (l *ListObject) ElementIDs() []common.ElemID { return l.seq.elementIDs() }

// InsertAt, RemoveRange, and UpdateAt are the interpreter's edit-application
// primitives; not for general application use (use a Context instead).
func (l *ListObject) InsertAt(idx int, elemID common.ElemID, candidates []Candidate) {
	l.seq.insertAt(idx, elemID, candidates)
}
func (l *ListObject) RemoveRange(idx, count int) { l.seq.removeRange(idx, count) }
func (l *ListObject) UpdateAt(idx int, candidates []Candidate) {
	l.seq.updateAt(idx, candidates)
}
