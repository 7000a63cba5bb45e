package crdt

import "github.com/homveloper/luvjson/common"

// element is one position in a List/Text object: a stable ElemID plus the
// candidate set currently resolving that position.
type element struct {
	id         common.ElemID
	candidates []Candidate
}

func (e element) clone() element {
	return element{id: e.id, candidates: cloneCandidates(e.candidates)}
}

// sequence is the shared ordered-position machinery behind ListObject and
// TextObject: RGA-style positions addressed by ElemID, each resolved
// independently through its own candidate set.
type sequence struct {
	id       common.ObjectID
	elements []element
}

func newSequence(id common.ObjectID) sequence {
	return sequence{id: id}
}

func (s sequence) clone() sequence {
	out := sequence{id: s.id, elements: make([]element, len(s.elements))}
	for i, e := range s.elements {
		out.elements[i] = e.clone()
	}
	return out
}

func (s *sequence) Len() int { return len(s.elements) }

// indexOfElemID returns the current position of elemID, or -1 if it is not
// present (already removed, or never inserted).
func (s *sequence) indexOfElemID(id common.ElemID) int {
	for i, e := range s.elements {
		if e.id == id {
			return i
		}
	}
	return -1
}

// insertAt inserts a fresh position with the given ElemID and candidate
// set at logical index idx, shifting subsequent positions right.
func (s *sequence) insertAt(idx int, elemID common.ElemID, candidates []Candidate) {
	el := element{id: elemID, candidates: candidates}
	s.elements = append(s.elements, element{})
	copy(s.elements[idx+1:], s.elements[idx:])
	s.elements[idx] = el
}

// removeRange deletes count consecutive positions starting at idx.
func (s *sequence) removeRange(idx, count int) {
	s.elements = append(s.elements[:idx], s.elements[idx+count:]...)
}

// updateAt replaces the candidate set of the position already at idx, the
// same way MapObject.SetCandidates replaces a key's candidate set: the
// patch fully determines the position's new candidates, it does not merge
// onto whatever was cached before this patch was interpreted.
func (s *sequence) updateAt(idx int, candidates []Candidate) {
	s.elements[idx].candidates = candidates
}

// resolvedAt returns the resolved value at idx, and ok=false if the
// position's candidate set is empty (shouldn't normally happen for a
// present position, but mirrors the map case for symmetry).
func (s *sequence) resolvedAt(idx int) (Value, bool) {
	c, ok := resolve(s.elements[idx].candidates)
	if !ok {
		return Value{}, false
	}
	return c.Value, true
}

func (s *sequence) elemIDAt(idx int) common.ElemID { return s.elements[idx].id }

// resolvedOpIDAt returns the OpID of the resolved candidate at idx.
func (s *sequence) resolvedOpIDAt(idx int) (common.OpID, bool) {
	c, ok := resolve(s.elements[idx].candidates)
	if !ok {
		return common.OpID{}, false
	}
	return c.OpID, true
}

// candidateOpIDsAt returns every OpID currently resolving idx.
func (s *sequence) candidateOpIDsAt(idx int) []common.OpID {
	cs := s.elements[idx].candidates
	ids := make([]common.OpID, len(cs))
	for i, c := range cs {
		ids[i] = c.OpID
	}
	return ids
}

func (s *sequence) conflictsAt(idx int) map[common.OpID]Value {
	cs := s.elements[idx].candidates
	if len(cs) < 2 {
		return nil
	}
	out := make(map[common.OpID]Value, len(cs))
	for _, c := range cs {
		out[c.OpID] = c.Value
	}
	return out
}

// elementIDs returns every live ElemID in order, for GetElementIDs.
func (s *sequence) elementIDs() []common.ElemID {
	ids := make([]common.ElemID, len(s.elements))
	for i, e := range s.elements {
		ids[i] = e.id
	}
	return ids
}
