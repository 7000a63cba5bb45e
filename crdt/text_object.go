package crdt

import (
	"strings"

	"github.com/homveloper/luvjson/common"
)

// TextObject is an ordered sequence of characters and inline values, split
// by code point, using the same ElemID-addressed position machinery as
// ListObject.
type TextObject struct {
	seq sequence
}

// NewTextObject creates an empty text object with the given identity.
func NewTextObject(id common.ObjectID) *TextObject {
	return &TextObject{seq: newSequence(id)}
}

func (t *TextObject) ID() common.ObjectID { return t.seq.id }
func (t *TextObject) Kind() ObjectKind    { return KindText }
func (t *TextObject) Len() int            { return t.seq.Len() }

func (t *TextObject) Clone() Object {
	return &TextObject{seq: t.seq.clone()}
}

func (t *TextObject) Get(idx int) (Value, bool) {
	if idx < 0 || idx >= t.seq.Len() {
		return Value{}, false
	}
	return t.seq.resolvedAt(idx)
}

// String concatenates the resolved values of every position that holds a
// single-code-point string, in order; non-string inline values are skipped.
func (t *TextObject) String() string {
	var b strings.Builder
	for i := 0; i < t.seq.Len(); i++ {
		v, ok := t.seq.resolvedAt(i)
		if !ok {
			continue
		}
		if s, ok := v.Primitive.(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func (t *TextObject) ElemIDAt(idx int) (common.ElemID, bool) {
	if idx < 0 || idx >= t.seq.Len() {
		return "", false
	}
	return t.seq.elemIDAt(idx), true
}

func (t *TextObject) IndexOfElemID(id common.ElemID) int { return t.seq.indexOfElemID(id) }

func (t *TextObject) ConflictsAt(idx int) map[common.OpID]Value { return t.seq.conflictsAt(idx) }

// ResolvedOpIDAt returns the OpID of the resolved candidate at idx.
func (t *TextObject) ResolvedOpIDAt(idx int) (common.OpID, bool) { return t.seq.resolvedOpIDAt(idx) }

// CandidateOpIDsAt returns every OpID currently resolving idx.
func (t *TextObject) CandidateOpIDsAt(idx int) []common.OpID { return t.seq.candidateOpIDsAt(idx) }

func (t *TextObject) ElementIDs() []common.ElemID { return t.seq.elementIDs() }

// InsertAt, RemoveRange, and UpdateAt are the interpreter's edit-application
// primitives; not for general application use (use a Context instead).
func (t *TextObject) InsertAt(idx int, elemID common.ElemID, candidates []Candidate) {
	t.seq.insertAt(idx, elemID, candidates)
}
func (t *TextObject) RemoveRange(idx, count int) { t.seq.removeRange(idx, count) }
func (t *TextObject) UpdateAt(idx int, candidates []Candidate) {
	t.seq.updateAt(idx, candidates)
}
