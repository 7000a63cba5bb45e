package crdtpatch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
)

// Interpret is the patch interpreter: a pure fold of patch into snapshot,
// producing a new snapshot with maximum structural sharing. Objects absent
// from patch.Nodes keep their pointer identity from snapshot.Cache.
func Interpret(snapshot crdt.Snapshot, patch *Patch) (crdt.Snapshot, error) {
	if patch == nil {
		return snapshot, nil
	}
	it := &interpreter{base: snapshot, updated: make(map[common.ObjectID]crdt.Object)}
	for _, diff := range patch.Nodes {
		if _, err := it.process(diff); err != nil {
			return crdt.Snapshot{}, errors.Wrap(err, "interpret patch")
		}
	}

	newCache := make(map[common.ObjectID]crdt.Object, len(snapshot.Cache)+len(it.updated))
	for id, obj := range snapshot.Cache {
		newCache[id] = obj
	}
	for id, obj := range it.updated {
		newCache[id] = obj
	}
	root, ok := newCache[common.RootObjectID].(*crdt.MapObject)
	if !ok {
		return crdt.Snapshot{}, common.ErrInternalConsistency{Message: "root object missing or wrong kind after patch"}
	}

	return crdt.Snapshot{
		Root:  root,
		Cache: newCache,
		State: mergeStateVector(snapshot.State, patch),
	}, nil
}

func mergeStateVector(prev crdt.StateVector, patch *Patch) crdt.StateVector {
	out := prev.Clone()
	for actor, seq := range patch.Clock {
		out.Clock[actor] = seq
	}
	if patch.Deps != nil {
		out.Deps = append([]common.OpID(nil), patch.Deps...)
	}
	if patch.MaxOp > out.MaxOp {
		out.MaxOp = patch.MaxOp
	}
	return out
}

// interpreter holds the clone-on-first-touch scratch map ("updated"): the
// first visit to an ObjectId during one Interpret call clones it from the
// base cache (or creates it fresh, for an object introduced by this same
// patch), and every subsequent visit reuses that clone.
type interpreter struct {
	base    crdt.Snapshot
	updated map[common.ObjectID]crdt.Object
}

func (it *interpreter) getOrClone(id common.ObjectID, kind crdt.ObjectKind) (crdt.Object, error) {
	if obj, ok := it.updated[id]; ok {
		return obj, nil
	}
	if obj, ok := it.base.Cache[id]; ok {
		clone := obj.Clone()
		it.updated[id] = clone
		return clone, nil
	}
	obj, err := crdt.NewObjectByKind(kind, id)
	if err != nil {
		return nil, err
	}
	it.updated[id] = obj
	return obj, nil
}

func (it *interpreter) process(diff *NodeDiff) (crdt.Object, error) {
	obj, err := it.getOrClone(diff.ObjectID, diff.Kind)
	if err != nil {
		return nil, err
	}
	if obj.Kind() != diff.Kind {
		return nil, common.ErrInternalConsistency{
			Message: fmt.Sprintf("object %s: cached kind %s does not match patch kind %s", diff.ObjectID, obj.Kind(), diff.Kind),
		}
	}

	switch diff.Kind {
	case crdt.KindMap:
		m := obj.(*crdt.MapObject)
		for key, byOp := range diff.Props {
			m.SetCandidates(key, it.buildCandidates(byOp))
		}
	case crdt.KindTable:
		t := obj.(*crdt.TableObject)
		for rowKey, byOp := range diff.Props {
			candidates := it.buildCandidates(byOp)
			rowID := common.ObjectID(rowKey)
			if len(candidates) == 0 {
				t.SetRow(rowID, crdt.Candidate{}, false)
				continue
			}
			t.SetRow(rowID, maxCandidate(candidates), true)
		}
	case crdt.KindList, crdt.KindText:
		seq, err := asEditable(obj)
		if err != nil {
			return nil, err
		}
		if err := it.applyEdits(seq, diff.Edits); err != nil {
			return nil, err
		}
	default:
		return nil, common.ErrInvalidObjectKind{Kind: string(diff.Kind)}
	}
	return obj, nil
}

func maxCandidate(candidates []crdt.Candidate) crdt.Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.OpID.Less(c.OpID) {
			best = c
		}
	}
	return best
}

func (it *interpreter) buildCandidates(byOp map[common.OpID]ValueDiff) []crdt.Candidate {
	candidates := make([]crdt.Candidate, 0, len(byOp))
	for opID, vd := range byOp {
		candidates = append(candidates, crdt.Candidate{OpID: opID, Value: it.resolveValueDiff(vd)})
	}
	return candidates
}

// resolveValueDiff materializes one candidate's value. An object-valued
// candidate's own content, if it changed, lives as its own entry in the
// patch's Nodes map and is processed independently of this call.
func (it *interpreter) resolveValueDiff(vd ValueDiff) crdt.Value {
	if vd.ObjectRef != "" {
		return crdt.Value{ObjectRef: vd.ObjectRef}
	}
	return crdt.Value{Datatype: vd.Datatype, Primitive: materializePrimitive(vd.Datatype, vd.Primitive)}
}

func materializePrimitive(dt common.Datatype, v interface{}) interface{} {
	switch dt {
	case common.DatatypeTimestamp:
		return common.Timestamp(toInt64(v))
	case common.DatatypeCounter:
		return common.Counter(toInt64(v))
	default:
		return v
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case common.Timestamp:
		return int64(n)
	case common.Counter:
		return int64(n)
	default:
		return 0
	}
}

// editableSeq is the subset of ListObject/TextObject's surface the
// interpreter needs to apply an edit script; both satisfy it.
type editableSeq interface {
	Len() int
	InsertAt(idx int, elemID common.ElemID, candidates []crdt.Candidate)
	RemoveRange(idx, count int)
	UpdateAt(idx int, candidates []crdt.Candidate)
}

func asEditable(obj crdt.Object) (editableSeq, error) {
	switch o := obj.(type) {
	case *crdt.ListObject:
		return o, nil
	case *crdt.TextObject:
		return o, nil
	default:
		return nil, common.ErrInternalConsistency{Message: "edits applied to a non-sequence object"}
	}
}

// applyEdits walks a list/text diff's edit script in order, so that each
// edit acts on the position state produced by the edits before it. Adjacent
// `update` edits at the same index are collapsed into a single candidate-set
// merge before resolution.
func (it *interpreter) applyEdits(seq editableSeq, edits []Edit) error {
	idx := 0
	for idx < len(edits) {
		e := edits[idx]
		switch e.Kind {
		case EditInsert:
			if e.Value == nil {
				return common.ErrInternalConsistency{Message: "insert edit missing value"}
			}
			opID, err := e.ElemID.OpID()
			if err != nil {
				return err
			}
			if e.Index < 0 || e.Index > seq.Len() {
				return common.ErrInternalConsistency{Message: "insert edit index out of range"}
			}
			val := it.resolveValueDiff(*e.Value)
			seq.InsertAt(e.Index, e.ElemID, []crdt.Candidate{{OpID: opID, Value: val}})
			idx++

		case EditMultiInsert:
			if len(e.Values) == 0 {
				idx++ // boundary behavior: empty multi-insert is a no-op
				continue
			}
			for i, vd := range e.Values {
				opID := common.OpID{Counter: e.RunStart.Counter + uint64(i), Actor: e.RunStart.Actor}
				elemID := common.NewElemID(opID)
				pos := e.Index + i
				if pos < 0 || pos > seq.Len() {
					return common.ErrInternalConsistency{Message: "multi-insert edit index out of range"}
				}
				val := it.resolveValueDiff(vd)
				seq.InsertAt(pos, elemID, []crdt.Candidate{{OpID: opID, Value: val}})
			}
			idx++

		case EditUpdate:
			j := idx
			var candidates []crdt.Candidate
			for j < len(edits) && edits[j].Kind == EditUpdate && edits[j].Index == e.Index {
				ue := edits[j]
				if ue.Value == nil {
					return common.ErrInternalConsistency{Message: "update edit missing value"}
				}
				val := it.resolveValueDiff(*ue.Value)
				candidates = append(candidates, crdt.Candidate{OpID: ue.OpID, Value: val})
				j++
			}
			if e.Index < 0 || e.Index >= seq.Len() {
				return common.ErrInternalConsistency{Message: "update edit index out of range"}
			}
			seq.UpdateAt(e.Index, candidates)
			idx = j

		case EditRemove:
			if e.Index < 0 || e.Count < 0 || e.Index+e.Count > seq.Len() {
				return common.ErrInternalConsistency{Message: "remove edit out of range"}
			}
			seq.RemoveRange(e.Index, e.Count)
			idx++

		default:
			return common.ErrInternalConsistency{Message: "unknown edit action"}
		}
	}
	return nil
}
