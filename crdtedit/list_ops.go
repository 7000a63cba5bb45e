package crdtedit

import (
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// spliceable is the position-addressed surface shared by ListObject and
// TextObject that Splice needs; both already implement it.
type spliceable interface {
	Len() int
	ElemIDAt(idx int) (common.ElemID, bool)
	CandidateOpIDsAt(idx int) []common.OpID
	InsertAt(idx int, elemID common.ElemID, candidates []crdt.Candidate)
	RemoveRange(idx, count int)
	UpdateAt(idx int, candidates []crdt.Candidate)
}

func asSpliceable(obj crdt.Object) (spliceable, bool) {
	switch o := obj.(type) {
	case *crdt.ListObject:
		return o, true
	case *crdt.TextObject:
		return o, true
	default:
		return nil, false
	}
}

// SetListIndex overwrites the value at index in the list reached by path.
// index == len(list) is accepted and behaves like a one-element Splice
// insertion at the end.
func (c *Context) SetListIndex(path []string, index int, value interface{}) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	containerID, err := c.resolveChain(path)
	if err != nil {
		return err
	}
	obj, err := c.getObject(containerID)
	if err != nil {
		return err
	}
	l, ok := obj.(*crdt.ListObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a list"}
	}
	if index < 0 {
		return common.ErrInvalidOperation{Message: "negative list index"}
	}
	if index == l.Len() {
		return c.Splice(path, index, 0, []interface{}{value})
	}
	if index > l.Len() {
		return common.ErrInvalidOperation{Message: "list index out of range"}
	}

	existing, _ := l.Get(index)
	pred := l.CandidateOpIDsAt(index)
	if existing.Datatype == common.DatatypeCounter {
		return common.ErrInvalidOperation{Message: "cannot overwrite a counter by assignment; use IncrementAt"}
	}
	if len(pred) <= 1 && !existing.IsObject() && valuesEqual(existing.Primitive, value) {
		return nil
	}

	elemID, _ := l.ElemIDAt(index)
	opID, val, vd, err := c.buildValue(value, containerID, crdtpatch.ElemKeyOf(elemID), false, pred)
	if err != nil {
		return err
	}
	l.UpdateAt(index, []crdt.Candidate{{OpID: opID, Value: val}})
	c.putObject(l)

	diff := c.diffFor(containerID, crdt.KindList)
	diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditUpdate, Index: index, OpID: opID, Value: &vd})
	c.resetIncCoalesce()
	return nil
}

// IncrementAt adds delta to the counter at index in the list reached by
// path. Consecutive increments to the same index within one Context are
// coalesced into a single wire op.
func (c *Context) IncrementAt(path []string, index int, delta int64) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	containerID, err := c.resolveChain(path)
	if err != nil {
		return err
	}
	obj, err := c.getObject(containerID)
	if err != nil {
		return err
	}
	l, ok := obj.(*crdt.ListObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a list"}
	}
	if index < 0 || index >= l.Len() {
		return common.ErrInvalidOperation{Message: "list index out of range"}
	}
	existing, _ := l.Get(index)
	if existing.Datatype != common.DatatypeCounter {
		return common.ErrInvalidOperation{Message: "increment target is not a counter"}
	}
	elemID, _ := l.ElemIDAt(index)
	opKey := crdtpatch.ElemKeyOf(elemID)

	if c.incValid && c.incObj == containerID && c.incKey == opKey {
		c.incTotal += delta
		c.ops[c.incOpIdx].Delta = c.incTotal
		newVal := common.Counter(c.incBaseValue + c.incTotal)
		vd := crdtpatch.ValueDiff{Primitive: int64(newVal), Datatype: common.DatatypeCounter}
		l.UpdateAt(index, []crdt.Candidate{{OpID: c.incOpID, Value: crdt.Value{Datatype: common.DatatypeCounter, Primitive: newVal}}})
		c.putObject(l)
		diff := c.diffFor(containerID, crdt.KindList)
		for i := range diff.Edits {
			if diff.Edits[i].Kind == crdtpatch.EditUpdate && diff.Edits[i].Index == index && diff.Edits[i].OpID == c.incOpID {
				diff.Edits[i].Value = &vd
			}
		}
		return nil
	}

	pred := l.CandidateOpIDsAt(index)
	opID := c.reserve()
	c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionInc, Obj: containerID, Key: opKey, Delta: delta, Pred: pred})
	baseValue := toInt64Local(existing.Primitive)
	newVal := common.Counter(baseValue + delta)
	l.UpdateAt(index, []crdt.Candidate{{OpID: opID, Value: crdt.Value{Datatype: common.DatatypeCounter, Primitive: newVal}}})
	c.putObject(l)

	diff := c.diffFor(containerID, crdt.KindList)
	vd := crdtpatch.ValueDiff{Primitive: int64(newVal), Datatype: common.DatatypeCounter}
	diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditUpdate, Index: index, OpID: opID, Value: &vd})

	c.incValid = true
	c.incObj = containerID
	c.incKey = opKey
	c.incOpIdx = len(c.ops) - 1
	c.incOpID = opID
	c.incBaseValue = baseValue
	c.incTotal = delta
	return nil
}

// insertRun is one contiguous group of insertions Splice emits as a single
// edit: either one composite (*Init) value, or a run of primitive values
// sharing a datatype.
type insertRun struct {
	items     []interface{}
	composite bool
	datatype  common.Datatype
}

func chunkInsertions(values []interface{}) []insertRun {
	var runs []insertRun
	i := 0
	for i < len(values) {
		if isComposite(values[i]) {
			runs = append(runs, insertRun{items: values[i : i+1], composite: true})
			i++
			continue
		}
		dt := common.ClassifyValue(values[i])
		j := i + 1
		for j < len(values) && !isComposite(values[j]) && common.ClassifyValue(values[j]) == dt {
			j++
		}
		runs = append(runs, insertRun{items: values[i:j], datatype: dt})
		i = j
	}
	return runs
}

// Splice removes del values starting at start and inserts insertions in
// their place, on the list or text object reached by path. Composite
// (*Init) insertions are each emitted as their own `make*` op; consecutive
// primitive insertions of the same datatype are batched into one
// multi-insert edit and one `set` op carrying a contiguous OpID run. A call
// with del == 0 and no insertions is a no-op.
func (c *Context) Splice(path []string, start, del int, insertions []interface{}) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	containerID, err := c.resolveChain(path)
	if err != nil {
		return err
	}
	obj, err := c.getObject(containerID)
	if err != nil {
		return err
	}
	target, ok := asSpliceable(obj)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a list or text object"}
	}
	if start < 0 || start > target.Len() {
		return common.ErrInvalidOperation{Message: "splice start out of range"}
	}
	if del < 0 || start+del > target.Len() {
		return common.ErrInvalidOperation{Message: "splice delete count out of range"}
	}
	if del == 0 && len(insertions) == 0 {
		return nil
	}

	diff := c.diffFor(containerID, obj.Kind())

	if del > 0 {
		elemID, _ := target.ElemIDAt(start)
		c.reserveRun(del)
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionDel, Obj: containerID, Key: crdtpatch.ElemKeyOf(elemID), MultiOp: del})
		target.RemoveRange(start, del)
		diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditRemove, Index: start, Count: del})
	}

	if len(insertions) > 0 {
		anchor := common.HeadElemID
		if start > 0 {
			anchor, _ = target.ElemIDAt(start - 1)
		}
		pos := start
		for _, run := range chunkInsertions(insertions) {
			if run.composite {
				opID, val, vd, err := c.buildValue(run.items[0], containerID, crdtpatch.ElemKeyOf(anchor), true, nil)
				if err != nil {
					return err
				}
				elemID := common.NewElemID(opID)
				target.InsertAt(pos, elemID, []crdt.Candidate{{OpID: opID, Value: val}})
				sv := vd
				diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditInsert, Index: pos, ElemID: elemID, Value: &sv})
				anchor = elemID
				pos++
				continue
			}

			for _, item := range run.items {
				if !common.IsSupportedPrimitive(item) {
					return common.ErrInvalidOperation{Message: "unsupported value type in splice insertion"}
				}
			}
			if len(run.items) == 1 {
				opID, val, vd, err := c.buildValue(run.items[0], containerID, crdtpatch.ElemKeyOf(anchor), true, nil)
				if err != nil {
					return err
				}
				elemID := common.NewElemID(opID)
				target.InsertAt(pos, elemID, []crdt.Candidate{{OpID: opID, Value: val}})
				sv := vd
				diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditInsert, Index: pos, ElemID: elemID, Value: &sv})
				anchor = elemID
				pos++
				continue
			}

			base := c.reserveRun(len(run.items))
			vds := make([]crdtpatch.ValueDiff, len(run.items))
			for i, item := range run.items {
				vds[i] = crdtpatch.ValueDiff{Primitive: item, Datatype: run.datatype}
			}
			c.ops = append(c.ops, crdtpatch.Op{
				Action: crdtpatch.ActionSet, Obj: containerID, Key: crdtpatch.ElemKeyOf(anchor),
				Insert: true, Values: run.items, Datatype: run.datatype,
			})
			var lastElemID common.ElemID
			for i, item := range run.items {
				opIDi := common.OpID{Counter: base.Counter + uint64(i), Actor: base.Actor}
				elemID := common.NewElemID(opIDi)
				target.InsertAt(pos+i, elemID, []crdt.Candidate{{OpID: opIDi, Value: crdt.Value{Datatype: run.datatype, Primitive: item}}})
				lastElemID = elemID
			}
			diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditMultiInsert, Index: pos, Values: vds, RunStart: base})
			pos += len(run.items)
			anchor = lastElemID
		}
	}

	c.putObject(obj)
	c.resetIncCoalesce()
	return nil
}

// SpliceText is Splice specialized for a Text object's string-valued
// insertions, splitting insert by code point.
func (c *Context) SpliceText(path []string, start, del int, insert string) error {
	runes := []rune(insert)
	items := make([]interface{}, len(runes))
	for i, r := range runes {
		items[i] = string(r)
	}
	return c.Splice(path, start, del, items)
}
