package crdtedit

import (
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// AddTableRow appends a new row, seeded with the given fields, to the table
// reached by path, returning the new row's id (also its content object's
// id — a table row is addressed by the id of the map that holds its
// fields). row must not carry a preset "id" key; row ids are assigned here.
func (c *Context) AddTableRow(path []string, row map[string]interface{}) (common.ObjectID, error) {
	if err := c.checkMutable(); err != nil {
		return "", err
	}
	if _, ok := row["id"]; ok {
		return "", common.ErrInvalidOperation{Message: "row must not supply a preset id; row ids are assigned by AddTableRow"}
	}
	containerID, err := c.resolveChain(path)
	if err != nil {
		return "", err
	}
	obj, err := c.getObject(containerID)
	if err != nil {
		return "", err
	}
	t, ok := obj.(*crdt.TableObject)
	if !ok {
		return "", common.ErrInvalidOperation{Message: "path does not name a table"}
	}

	rowKey := crdtpatch.MapKeyOf(string(common.NewObjectID(common.OpID{Counter: c.nextOp, Actor: c.actor})))
	rowOpID, rowVal, rowVD, err := c.buildValue(MapInit(row), containerID, rowKey, true, nil)
	if err != nil {
		return "", err
	}
	rowID := rowVal.ObjectRef

	t.SetRow(rowID, crdt.Candidate{OpID: rowOpID, Value: rowVal}, true)
	c.putObject(t)

	diff := c.diffFor(containerID, crdt.KindTable)
	ensureProps(diff)[string(rowID)] = map[common.OpID]crdtpatch.ValueDiff{rowOpID: rowVD}
	c.resetIncCoalesce()
	return rowID, nil
}

// DeleteTableRow removes rowID from the table reached by path. A row id
// that is already absent is a no-op.
func (c *Context) DeleteTableRow(path []string, rowID common.ObjectID) error {
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
	t, ok := obj.(*crdt.TableObject)
	if !ok {
		return common.ErrInvalidOperation{Message: "path does not name a table"}
	}
	rowOpID, ok := t.ResolvedOpIDForRow(rowID)
	if !ok {
		return nil
	}

	c.reserve()
	c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionDel, Obj: containerID, Key: crdtpatch.MapKeyOf(string(rowID)), Pred: []common.OpID{rowOpID}})
	t.SetRow(rowID, crdt.Candidate{}, false)
	c.putObject(t)

	diff := c.diffFor(containerID, crdt.KindTable)
	ensureProps(diff)[string(rowID)] = map[common.OpID]crdtpatch.ValueDiff{}
	c.resetIncCoalesce()
	return nil
}
