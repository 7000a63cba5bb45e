package crdtedit

import (
	"fmt"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
)

// Query is a read-only path-walking helper over a crdt.Snapshot, the
// counterpart to Context for code that only ever reads — docengine's
// GetByPath and GetConflictsByPath go through here instead of reaching into
// crdt.Snapshot directly.
type Query struct {
	snap crdt.Snapshot
}

// NewQuery wraps a snapshot for read-only path queries.
func NewQuery(snap crdt.Snapshot) *Query {
	return &Query{snap: snap}
}

// resolveContainer descends path through Map/Table objects, starting at
// root, and returns the id of the object the path points to. An empty path
// resolves to the root itself.
func (q *Query) resolveContainer(path []string) (common.ObjectID, error) {
	id := common.RootObjectID
	for _, step := range path {
		obj, ok := q.snap.Get(id)
		if !ok {
			return "", common.ErrObjectNotFound{ID: id}
		}
		switch o := obj.(type) {
		case *crdt.MapObject:
			v, ok := o.Get(step)
			if !ok {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("no such key %q", step)}
			}
			if !v.IsObject() {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("%q is not an object", step)}
			}
			id = v.ObjectRef
		case *crdt.TableObject:
			rowID := common.ObjectID(step)
			v, ok := o.GetRow(rowID)
			if !ok {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("no such row %q", step)}
			}
			if !v.IsObject() {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("row %q is not an object", step)}
			}
			id = v.ObjectRef
		default:
			return "", common.ErrInvalidOperation{Message: fmt.Sprintf("%q descends through a non-container object", step)}
		}
	}
	return id, nil
}

// Get returns the raw value named by path's final segment: path[:len-1]
// must resolve to a Map or Table container, and the last segment is looked
// up as a key (Map) or row id (Table) on it.
func (q *Query) Get(path []string) (crdt.Value, error) {
	if len(path) == 0 {
		return crdt.Value{}, common.ErrInvalidOperation{Message: "path must name at least one key"}
	}
	containerID, err := q.resolveContainer(path[:len(path)-1])
	if err != nil {
		return crdt.Value{}, err
	}
	key := path[len(path)-1]

	obj, ok := q.snap.Get(containerID)
	if !ok {
		return crdt.Value{}, common.ErrObjectNotFound{ID: containerID}
	}
	switch o := obj.(type) {
	case *crdt.MapObject:
		v, ok := o.Get(key)
		if !ok {
			return crdt.Value{}, common.ErrInvalidOperation{Message: fmt.Sprintf("no such key %q", key)}
		}
		return v, nil
	case *crdt.TableObject:
		v, ok := o.GetRow(common.ObjectID(key))
		if !ok {
			return crdt.Value{}, common.ErrInvalidOperation{Message: fmt.Sprintf("no such row %q", key)}
		}
		return v, nil
	default:
		return crdt.Value{}, common.ErrInvalidOperation{Message: "path's parent is not a keyed container"}
	}
}

// GetObject returns a shallow map of a Map object's own properties,
// resolved to their current primitive/object-ref value.
func (q *Query) GetObject(path []string) (map[string]interface{}, error) {
	id, err := q.resolveContainer(path)
	if err != nil {
		return nil, err
	}
	obj, ok := q.snap.Get(id)
	if !ok {
		return nil, common.ErrObjectNotFound{ID: id}
	}
	m, ok := obj.(*crdt.MapObject)
	if !ok {
		return nil, common.ErrInvalidOperation{Message: "path does not resolve to a map object"}
	}
	result := make(map[string]interface{}, len(m.Keys()))
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		if v.IsObject() {
			result[key] = v.ObjectRef
		} else {
			result[key] = v.Primitive
		}
	}
	return result, nil
}

// GetList returns a List object's elements, in order, as raw primitives
// (objects are returned as their ObjectRef). A Text object is rejected.
func (q *Query) GetList(path []string) ([]interface{}, error) {
	id, err := q.resolveContainer(path)
	if err != nil {
		return nil, err
	}
	obj, ok := q.snap.Get(id)
	if !ok {
		return nil, common.ErrObjectNotFound{ID: id}
	}
	switch o := obj.(type) {
	case *crdt.ListObject:
		out := make([]interface{}, o.Len())
		for i := range out {
			v, _ := o.Get(i)
			if v.IsObject() {
				out[i] = v.ObjectRef
			} else {
				out[i] = v.Primitive
			}
		}
		return out, nil
	case *crdt.TextObject:
		return nil, common.ErrInvalidOperation{Message: "use GetString for a text object"}
	default:
		return nil, common.ErrInvalidOperation{Message: "path does not resolve to a list object"}
	}
}

// GetString returns a Text object's resolved string content.
func (q *Query) GetString(path []string) (string, error) {
	id, err := q.resolveContainer(path)
	if err != nil {
		return "", err
	}
	obj, ok := q.snap.Get(id)
	if !ok {
		return "", common.ErrObjectNotFound{ID: id}
	}
	text, ok := obj.(*crdt.TextObject)
	if !ok {
		return "", common.ErrInvalidOperation{Message: "path does not resolve to a text object"}
	}
	return text.String(), nil
}

// GetNumber returns a primitive at path coerced to float64.
func (q *Query) GetNumber(path []string) (float64, error) {
	v, err := q.Get(path)
	if err != nil {
		return 0, err
	}
	switch n := v.Primitive.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case common.Counter:
		return float64(n), nil
	default:
		return 0, common.ErrInvalidOperation{Message: fmt.Sprintf("value is not numeric: %T", v.Primitive)}
	}
}

// GetBoolean returns a primitive at path coerced to bool.
func (q *Query) GetBoolean(path []string) (bool, error) {
	v, err := q.Get(path)
	if err != nil {
		return false, err
	}
	b, ok := v.Primitive.(bool)
	if !ok {
		return false, common.ErrInvalidOperation{Message: fmt.Sprintf("value is not a boolean: %T", v.Primitive)}
	}
	return b, nil
}

// Conflicts returns the candidate set for path's final map key, present
// only when more than one candidate remains unresolved.
func (q *Query) Conflicts(path []string) (map[common.OpID]crdt.Value, error) {
	if len(path) == 0 {
		return nil, common.ErrInvalidOperation{Message: "path must name at least one key"}
	}
	containerID, err := q.resolveContainer(path[:len(path)-1])
	if err != nil {
		return nil, err
	}
	return q.snap.GetConflicts(containerID, path[len(path)-1]), nil
}
