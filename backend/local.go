package backend

import (
	"encoding/json"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// LocalBackend is a single-writer, in-process Backend: it carries no
// network or persistence concerns of its own, it just reconstructs the
// patch a real backend would compute from a change record's raw op list,
// folding each op into its own rolling crdt.Snapshot as it goes so that
// later ops in the same change see earlier ops' newly created objects and
// positions.
type LocalBackend struct{}

// NewLocalBackend constructs a LocalBackend.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

// Init returns a fresh empty document snapshot as the backend's state.
func (b *LocalBackend) Init() (interface{}, error) {
	snap := crdt.Empty()
	return &snap, nil
}

// ApplyLocalChange replays req.Ops against the backend's tracked snapshot,
// assigning each op the next sequential OpID starting at req.StartOp.
func (b *LocalBackend) ApplyLocalChange(state interface{}, req crdtpatch.ChangeRequest) (interface{}, *crdtpatch.Patch, crdtpatch.EncodedChange, error) {
	snap, ok := state.(*crdt.Snapshot)
	if !ok || snap == nil {
		return nil, nil, nil, common.ErrInvalidOperation{Message: "local backend state must be a non-nil *crdt.Snapshot"}
	}

	working := *snap
	allNodes := make(map[common.ObjectID]*crdtpatch.NodeDiff)
	counter := req.StartOp

	for _, op := range req.Ops {
		n := consumedCounters(op)
		opID := common.OpID{Counter: counter, Actor: req.Actor}

		nodes := make(map[common.ObjectID]*crdtpatch.NodeDiff)
		if err := applyOp(nodes, &working, op, opID); err != nil {
			return nil, nil, nil, err
		}
		stepPatch := &crdtpatch.Patch{Nodes: nodes, MaxOp: counter + uint64(n) - 1}
		next, err := crdtpatch.Interpret(working, stepPatch)
		if err != nil {
			return nil, nil, nil, err
		}
		working = next
		mergeNodes(allNodes, nodes)
		counter += uint64(n)
	}

	seq := req.Seq
	finalPatch := &crdtpatch.Patch{
		Actor: &req.Actor,
		Seq:   &seq,
		Clock: map[common.ActorID]uint64{req.Actor: seq},
		MaxOp: counter - 1,
		Nodes: allNodes,
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, nil, nil, err
	}
	return &working, finalPatch, crdtpatch.EncodedChange(encoded), nil
}

func mergeNodes(all, fresh map[common.ObjectID]*crdtpatch.NodeDiff) {
	for id, d := range fresh {
		existing, ok := all[id]
		if !ok {
			all[id] = d
			continue
		}
		if len(d.Props) > 0 {
			if existing.Props == nil {
				existing.Props = make(map[string]map[common.OpID]crdtpatch.ValueDiff)
			}
			for k, byOp := range d.Props {
				existing.Props[k] = byOp // last write for a key within one change wins
			}
		}
		existing.Edits = append(existing.Edits, d.Edits...)
	}
}

func consumedCounters(op crdtpatch.Op) int {
	switch op.Action {
	case crdtpatch.ActionSet:
		if len(op.Values) > 0 {
			return len(op.Values)
		}
		return 1
	case crdtpatch.ActionDel:
		if op.MultiOp > 0 {
			return op.MultiOp
		}
		return 1
	default:
		return 1
	}
}

func kindForAction(action crdtpatch.OpAction) (crdt.ObjectKind, bool) {
	switch action {
	case crdtpatch.ActionMakeMap:
		return crdt.KindMap, true
	case crdtpatch.ActionMakeList:
		return crdt.KindList, true
	case crdtpatch.ActionMakeText:
		return crdt.KindText, true
	case crdtpatch.ActionMakeTable:
		return crdt.KindTable, true
	default:
		return "", false
	}
}

func applyOp(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, op crdtpatch.Op, opID common.OpID) error {
	switch op.Action {
	case crdtpatch.ActionMakeMap, crdtpatch.ActionMakeList, crdtpatch.ActionMakeText, crdtpatch.ActionMakeTable:
		childKind, _ := kindForAction(op.Action)
		childID := common.NewObjectID(opID)
		nodes[childID] = &crdtpatch.NodeDiff{ObjectID: childID, Kind: childKind}
		return recordWrite(nodes, snap, op, opID, crdtpatch.ValueDiff{ObjectRef: childID})

	case crdtpatch.ActionSet:
		if len(op.Values) > 0 {
			return recordMultiInsert(nodes, snap, op, opID)
		}
		return recordWrite(nodes, snap, op, opID, crdtpatch.ValueDiff{Primitive: op.Value, Datatype: op.Datatype})

	case crdtpatch.ActionDel:
		return recordDelete(nodes, snap, op)

	case crdtpatch.ActionInc:
		return recordInc(nodes, snap, op, opID)

	default:
		return common.ErrInvalidOperation{Message: "unknown op action"}
	}
}

func nodeFor(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, id common.ObjectID) (*crdtpatch.NodeDiff, error) {
	if d, ok := nodes[id]; ok {
		return d, nil
	}
	obj, ok := snap.Get(id)
	if !ok {
		return nil, common.ErrObjectNotFound{ID: id}
	}
	d := &crdtpatch.NodeDiff{ObjectID: id, Kind: obj.Kind()}
	nodes[id] = d
	return d, nil
}

// recordWrite handles a Set/makeX op's own write into its container: a
// keyed write for Map/Table targets, or a positional insert/update for
// List/Text targets.
func recordWrite(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, op crdtpatch.Op, opID common.OpID, vd crdtpatch.ValueDiff) error {
	d, err := nodeFor(nodes, snap, op.Obj)
	if err != nil {
		return err
	}
	if !op.Key.IsElem {
		if d.Props == nil {
			d.Props = make(map[string]map[common.OpID]crdtpatch.ValueDiff)
		}
		d.Props[op.Key.MapKey] = map[common.OpID]crdtpatch.ValueDiff{opID: vd}
		return nil
	}

	index, err := indexForElem(snap, op.Obj, op.Key.Elem, op.Insert)
	if err != nil {
		return err
	}
	elemID := common.NewElemID(opID)
	if op.Insert {
		sv := vd
		d.Edits = append(d.Edits, crdtpatch.Edit{Kind: crdtpatch.EditInsert, Index: index, ElemID: elemID, Value: &sv})
	} else {
		sv := vd
		d.Edits = append(d.Edits, crdtpatch.Edit{Kind: crdtpatch.EditUpdate, Index: index, OpID: opID, Value: &sv})
	}
	return nil
}

func recordMultiInsert(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, op crdtpatch.Op, base common.OpID) error {
	d, err := nodeFor(nodes, snap, op.Obj)
	if err != nil {
		return err
	}
	index, err := indexForElem(snap, op.Obj, op.Key.Elem, op.Insert)
	if err != nil {
		return err
	}
	vds := make([]crdtpatch.ValueDiff, len(op.Values))
	for i, v := range op.Values {
		vds[i] = crdtpatch.ValueDiff{Primitive: v, Datatype: op.Datatype}
	}
	d.Edits = append(d.Edits, crdtpatch.Edit{Kind: crdtpatch.EditMultiInsert, Index: index, Values: vds, RunStart: base})
	return nil
}

func recordDelete(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, op crdtpatch.Op) error {
	d, err := nodeFor(nodes, snap, op.Obj)
	if err != nil {
		return err
	}
	if !op.Key.IsElem {
		if d.Props == nil {
			d.Props = make(map[string]map[common.OpID]crdtpatch.ValueDiff)
		}
		d.Props[op.Key.MapKey] = map[common.OpID]crdtpatch.ValueDiff{}
		return nil
	}
	index, err := indexForElem(snap, op.Obj, op.Key.Elem, false)
	if err != nil {
		return err
	}
	count := op.MultiOp
	if count <= 0 {
		count = 1
	}
	d.Edits = append(d.Edits, crdtpatch.Edit{Kind: crdtpatch.EditRemove, Index: index, Count: count})
	return nil
}

func recordInc(nodes map[common.ObjectID]*crdtpatch.NodeDiff, snap *crdt.Snapshot, op crdtpatch.Op, opID common.OpID) error {
	d, err := nodeFor(nodes, snap, op.Obj)
	if err != nil {
		return err
	}
	if !op.Key.IsElem {
		newVal, err := counterValue(snap, op.Obj, op.Key.MapKey, op.Delta)
		if err != nil {
			return err
		}
		if d.Props == nil {
			d.Props = make(map[string]map[common.OpID]crdtpatch.ValueDiff)
		}
		d.Props[op.Key.MapKey] = map[common.OpID]crdtpatch.ValueDiff{
			opID: {Primitive: newVal, Datatype: common.DatatypeCounter},
		}
		return nil
	}
	index, err := indexForElem(snap, op.Obj, op.Key.Elem, false)
	if err != nil {
		return err
	}
	obj, _ := snap.Get(op.Obj)
	list, ok := obj.(*crdt.ListObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "inc targeting a non-list sequence"}
	}
	existing, _ := list.Get(index)
	newVal := int64(existing.Primitive.(common.Counter)) + op.Delta
	sv := crdtpatch.ValueDiff{Primitive: newVal, Datatype: common.DatatypeCounter}
	d.Edits = append(d.Edits, crdtpatch.Edit{Kind: crdtpatch.EditUpdate, Index: index, OpID: opID, Value: &sv})
	return nil
}

func counterValue(snap *crdt.Snapshot, objID common.ObjectID, key string, delta int64) (int64, error) {
	obj, ok := snap.Get(objID)
	if !ok {
		return 0, common.ErrObjectNotFound{ID: objID}
	}
	m, ok := obj.(*crdt.MapObject)
	if !ok {
		return 0, common.ErrInvalidOperation{Message: "inc targeting a non-map object"}
	}
	existing, ok := m.Get(key)
	if !ok || existing.Datatype != common.DatatypeCounter {
		return 0, common.ErrInvalidOperation{Message: "inc target is not a counter"}
	}
	base := int64(existing.Primitive.(common.Counter))
	return base + delta, nil
}

func indexForElem(snap *crdt.Snapshot, objID common.ObjectID, elem common.ElemID, insertAfter bool) (int, error) {
	obj, ok := snap.Get(objID)
	if !ok {
		return 0, common.ErrObjectNotFound{ID: objID}
	}
	type indexer interface {
		IndexOfElemID(common.ElemID) int
	}
	seq, ok := obj.(indexer)
	if !ok {
		return 0, common.ErrInvalidOperation{Message: "target is not a list or text object"}
	}
	if elem.IsHead() {
		return 0, nil
	}
	idx := seq.IndexOfElemID(elem)
	if idx < 0 {
		return 0, common.ErrInternalConsistency{Message: "elemId not found in target sequence"}
	}
	if insertAfter {
		idx++
	}
	return idx, nil
}
