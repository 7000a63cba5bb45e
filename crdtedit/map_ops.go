package crdtedit

import (
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// SetMapKey assigns value to key on the map/table-row reached by path. A
// write that would leave the resolved value unchanged, when key carries no
// live conflict, is elided — no op is emitted and the change stays
// unaffected. Overwriting a counter by assignment is rejected; use
// Increment instead.
func (c *Context) SetMapKey(path []string, key string, value interface{}) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if key == "" {
		return common.ErrInvalidOperation{Message: "map key must not be empty"}
	}
	containerID, err := c.resolveChain(path)
	if err != nil {
		return err
	}
	obj, err := c.getObject(containerID)
	if err != nil {
		return err
	}
	m, ok := obj.(*crdt.MapObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a map"}
	}

	existing, hasExisting := m.Get(key)
	pred := m.CandidateOpIDs(key)

	if hasExisting && existing.Datatype == common.DatatypeCounter {
		return common.ErrInvalidOperation{Message: "cannot overwrite a counter by assignment; use Increment"}
	}
	if len(pred) <= 1 && hasExisting && !existing.IsObject() && valuesEqual(existing.Primitive, value) {
		return nil
	}

	opID, val, vd, err := c.buildValue(value, containerID, crdtpatch.MapKeyOf(key), false, pred)
	if err != nil {
		return err
	}
	m.SetCandidates(key, []crdt.Candidate{{OpID: opID, Value: val}})
	c.putObject(m)

	diff := c.diffFor(containerID, crdt.KindMap)
	ensureProps(diff)[key] = map[common.OpID]crdtpatch.ValueDiff{opID: vd}
	c.resetIncCoalesce()
	return nil
}

// DeleteMapKey removes key from the map/table-row reached by path. A
// missing key is a no-op.
func (c *Context) DeleteMapKey(path []string, key string) error {
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
	m, ok := obj.(*crdt.MapObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a map"}
	}
	pred := m.CandidateOpIDs(key)
	if len(pred) == 0 {
		return nil
	}

	c.reserve()
	c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionDel, Obj: containerID, Key: crdtpatch.MapKeyOf(key), Pred: pred})
	m.SetCandidates(key, nil)
	c.putObject(m)

	diff := c.diffFor(containerID, crdt.KindMap)
	ensureProps(diff)[key] = map[common.OpID]crdtpatch.ValueDiff{}
	c.resetIncCoalesce()
	return nil
}

// Increment adds delta to the counter at key on the map/table-row reached
// by path. Consecutive increments to the same key within one Context are
// coalesced into a single wire op.
func (c *Context) Increment(path []string, key string, delta int64) error {
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
	m, ok := obj.(*crdt.MapObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a map"}
	}
	existing, ok := m.Get(key)
	if !ok || existing.Datatype != common.DatatypeCounter {
		return common.ErrInvalidOperation{Message: "increment target is not a counter"}
	}
	opKey := crdtpatch.MapKeyOf(key)

	if c.incValid && c.incObj == containerID && c.incKey == opKey {
		c.incTotal += delta
		c.ops[c.incOpIdx].Delta = c.incTotal
		newVal := common.Counter(c.incBaseValue + c.incTotal)
		m.SetCandidates(key, []crdt.Candidate{{OpID: c.incOpID, Value: crdt.Value{Datatype: common.DatatypeCounter, Primitive: newVal}}})
		c.putObject(m)
		diff := c.diffFor(containerID, crdt.KindMap)
		ensureProps(diff)[key] = map[common.OpID]crdtpatch.ValueDiff{
			c.incOpID: {Primitive: int64(newVal), Datatype: common.DatatypeCounter},
		}
		return nil
	}

	pred := m.CandidateOpIDs(key)
	opID := c.reserve()
	c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionInc, Obj: containerID, Key: opKey, Delta: delta, Pred: pred})
	baseValue := toInt64Local(existing.Primitive)
	newVal := common.Counter(baseValue + delta)
	m.SetCandidates(key, []crdt.Candidate{{OpID: opID, Value: crdt.Value{Datatype: common.DatatypeCounter, Primitive: newVal}}})
	c.putObject(m)

	diff := c.diffFor(containerID, crdt.KindMap)
	ensureProps(diff)[key] = map[common.OpID]crdtpatch.ValueDiff{
		opID: {Primitive: int64(newVal), Datatype: common.DatatypeCounter},
	}

	c.incValid = true
	c.incObj = containerID
	c.incKey = opKey
	c.incOpIdx = len(c.ops) - 1
	c.incOpID = opID
	c.incBaseValue = baseValue
	c.incTotal = delta
	return nil
}

func toInt64Local(v interface{}) int64 {
	switch n := v.(type) {
	case common.Counter:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
