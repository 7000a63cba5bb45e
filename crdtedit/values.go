package crdtedit

import (
	"fmt"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// MapInit, as the value assigned to a map key, list index, or table cell,
// requests creation of a nested Map object seeded with the given entries.
type MapInit map[string]interface{}

// ListInit requests creation of a nested List object seeded with the given
// contents, in order.
type ListInit []interface{}

// TextInit requests creation of a nested Text object seeded with the given
// string, split by code point.
type TextInit string

// TableInit requests creation of an empty Table object; rows are added
// afterward with Context.AddTableRow.
type TableInit struct{}

func isComposite(v interface{}) bool {
	switch v.(type) {
	case MapInit, ListInit, TextInit, TableInit:
		return true
	}
	return false
}

// buildValue realizes one value being written into container under key: a
// plain primitive becomes a single `set` op, while an *Init marker creates a
// new object (a `make*` op) and recurses into its seed content. It appends
// to c.ops and returns the OpID that now identifies this value (the value's
// own op for a primitive, the creating op for a new object), the resolved
// crdt.Value, and the matching ValueDiff for the patch tree.
func (c *Context) buildValue(v interface{}, container common.ObjectID, key crdtpatch.OpKey, insert bool, pred []common.OpID) (common.OpID, crdt.Value, crdtpatch.ValueDiff, error) {
	switch init := v.(type) {
	case MapInit:
		opID := c.reserve()
		objID := common.NewObjectID(opID)
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeMap, Obj: container, Key: key, Insert: insert, Pred: pred})
		obj := crdt.NewMapObject(objID)
		diff := c.diffFor(objID, crdt.KindMap)
		for k, sub := range init {
			subOpID, subVal, subVD, err := c.buildValue(sub, objID, crdtpatch.MapKeyOf(k), false, nil)
			if err != nil {
				return common.OpID{}, crdt.Value{}, crdtpatch.ValueDiff{}, err
			}
			obj.SetCandidates(k, []crdt.Candidate{{OpID: subOpID, Value: subVal}})
			props := ensureProps(diff)
			props[k] = map[common.OpID]crdtpatch.ValueDiff{subOpID: subVD}
		}
		c.putObject(obj)
		return opID, crdt.Value{ObjectRef: objID}, crdtpatch.ValueDiff{ObjectRef: objID}, nil

	case ListInit:
		opID := c.reserve()
		objID := common.NewObjectID(opID)
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeList, Obj: container, Key: key, Insert: insert, Pred: pred})
		obj := crdt.NewListObject(objID)
		diff := c.diffFor(objID, crdt.KindList)
		anchor := common.HeadElemID
		for i, sub := range init {
			subOpID, subVal, subVD, err := c.buildValue(sub, objID, crdtpatch.ElemKeyOf(anchor), true, nil)
			if err != nil {
				return common.OpID{}, crdt.Value{}, crdtpatch.ValueDiff{}, err
			}
			elemID := common.NewElemID(subOpID)
			obj.InsertAt(i, elemID, []crdt.Candidate{{OpID: subOpID, Value: subVal}})
			sv := subVD
			diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditInsert, Index: i, ElemID: elemID, Value: &sv})
			anchor = elemID
		}
		c.putObject(obj)
		return opID, crdt.Value{ObjectRef: objID}, crdtpatch.ValueDiff{ObjectRef: objID}, nil

	case TextInit:
		opID := c.reserve()
		objID := common.NewObjectID(opID)
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeText, Obj: container, Key: key, Insert: insert, Pred: pred})
		obj := crdt.NewTextObject(objID)
		diff := c.diffFor(objID, crdt.KindText)
		runes := []rune(string(init))
		if len(runes) > 0 {
			base := c.reserveRun(len(runes))
			values := make([]interface{}, len(runes))
			vds := make([]crdtpatch.ValueDiff, len(runes))
			for i, r := range runes {
				s := string(r)
				values[i] = s
				vds[i] = crdtpatch.ValueDiff{Primitive: s, Datatype: common.DatatypeStr}
			}
			c.ops = append(c.ops, crdtpatch.Op{
				Action: crdtpatch.ActionSet, Obj: objID, Key: crdtpatch.ElemKeyOf(common.HeadElemID),
				Insert: true, Values: values, Datatype: common.DatatypeStr,
			})
			for i := range runes {
				opIDi := common.OpID{Counter: base.Counter + uint64(i), Actor: base.Actor}
				elemID := common.NewElemID(opIDi)
				obj.InsertAt(i, elemID, []crdt.Candidate{{OpID: opIDi, Value: crdt.Value{Datatype: common.DatatypeStr, Primitive: values[i]}}})
			}
			diff.Edits = append(diff.Edits, crdtpatch.Edit{Kind: crdtpatch.EditMultiInsert, Index: 0, Values: vds, RunStart: base})
		}
		c.putObject(obj)
		return opID, crdt.Value{ObjectRef: objID}, crdtpatch.ValueDiff{ObjectRef: objID}, nil

	case TableInit:
		opID := c.reserve()
		objID := common.NewObjectID(opID)
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeTable, Obj: container, Key: key, Insert: insert, Pred: pred})
		obj := crdt.NewTableObject(objID)
		c.diffFor(objID, crdt.KindTable)
		c.putObject(obj)
		return opID, crdt.Value{ObjectRef: objID}, crdtpatch.ValueDiff{ObjectRef: objID}, nil

	default:
		if !common.IsSupportedPrimitive(v) {
			return common.OpID{}, crdt.Value{}, crdtpatch.ValueDiff{}, common.ErrInvalidOperation{
				Message: fmt.Sprintf("unsupported value type %T", v),
			}
		}
		dt := common.ClassifyValue(v)
		opID := c.reserve()
		c.ops = append(c.ops, crdtpatch.Op{Action: crdtpatch.ActionSet, Obj: container, Key: key, Insert: insert, Value: v, Datatype: dt, Pred: pred})
		return opID, crdt.Value{Datatype: dt, Primitive: v}, crdtpatch.ValueDiff{Primitive: v, Datatype: dt}, nil
	}
}
