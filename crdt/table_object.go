package crdt

import "github.com/homveloper/luvjson/common"

// TableObject maps rowId (an OpID) to a row object. Row identity is unique,
// so rows carry no conflict sets — a row is either present (resolved from
// exactly one candidate, its creator) or absent. TableObject only tracks
// rows: it has no column list, and every key folded into a table is taken
// as a row id.
type TableObject struct {
	id    common.ObjectID
	order []common.ObjectID          // row ids, insertion order
	rows  map[common.ObjectID]Candidate // rowId -> the single candidate resolving it
}

// NewTableObject creates an empty table object with the given identity.
func NewTableObject(id common.ObjectID) *TableObject {
	return &TableObject{id: id, rows: make(map[common.ObjectID]Candidate)}
}

func (t *TableObject) ID() common.ObjectID { return t.id }
func (t *TableObject) Kind() ObjectKind    { return KindTable }

func (t *TableObject) Clone() Object {
	out := &TableObject{
		id:    t.id,
		order: append([]common.ObjectID(nil), t.order...),
		rows:  make(map[common.ObjectID]Candidate, len(t.rows)),
	}
	for k, v := range t.rows {
		out.rows[k] = v
	}
	return out
}

// RowIDs returns every present row id, in insertion order.
func (t *TableObject) RowIDs() []common.ObjectID {
	out := make([]common.ObjectID, 0, len(t.order))
	for _, id := range t.order {
		if _, ok := t.rows[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// GetRow returns the resolved row value (normally an object reference) for
// rowID.
func (t *TableObject) GetRow(rowID common.ObjectID) (Value, bool) {
	c, ok := t.rows[rowID]
	if !ok {
		return Value{}, false
	}
	return c.Value, true
}

// ResolvedOpIDForRow returns the OpID of the candidate currently occupying
// rowID (its creator — rows carry no conflicts).
func (t *TableObject) ResolvedOpIDForRow(rowID common.ObjectID) (common.OpID, bool) {
	c, ok := t.rows[rowID]
	if !ok {
		return common.OpID{}, false
	}
	return c.OpID, true
}

// SetRow installs or removes a row. present=false removes the row,
// mirroring an empty candidate set for maps/lists. Not for general
// application use (used by the interpreter).
func (t *TableObject) SetRow(rowID common.ObjectID, candidate Candidate, present bool) {
	if !present {
		delete(t.rows, rowID)
		return
	}
	if _, existed := t.rows[rowID]; !existed {
		t.order = append(t.order, rowID)
	}
	t.rows[rowID] = candidate
}
