// Package crdtedit implements the change context: the mutable, path-based
// editing surface an application uses to describe one local change. A
// Context accumulates a wire-ready op list and a patch (NodeDiff per
// touched object) in lockstep, against a clone-on-first-touch shadow of the
// base snapshot so that later reads in the same change see earlier writes.
package crdtedit

import (
	"fmt"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtpatch"
)

// Context captures one local change: a sequence of path-based mutations
// against a base snapshot, synthesizing both the backend-bound op list and
// the patch that would bring the base snapshot up to date if interpreted
// locally before the backend round-trips it.
type Context struct {
	base   crdt.Snapshot
	actor  common.ActorID
	nextOp uint64
	frozen bool

	ops   []crdtpatch.Op
	shadow map[common.ObjectID]crdt.Object
	diffs  map[common.ObjectID]*crdtpatch.NodeDiff

	// adjacent-increment coalescing
	incValid     bool
	incObj       common.ObjectID
	incKey       crdtpatch.OpKey
	incOpIdx     int
	incOpID      common.OpID
	incBaseValue int64
	incTotal     int64
}

// NewContext starts a change against snapshot, authored by actor. New op
// ids are reserved starting at snapshot's MaxOp+1.
func NewContext(snapshot crdt.Snapshot, actor common.ActorID) *Context {
	return &Context{
		base:   snapshot,
		actor:  actor,
		nextOp: snapshot.State.MaxOp + 1,
		frozen: snapshot.Frozen,
		shadow: make(map[common.ObjectID]crdt.Object),
		diffs:  make(map[common.ObjectID]*crdtpatch.NodeDiff),
	}
}

// Empty reports whether no mutation has been recorded yet.
func (c *Context) Empty() bool { return len(c.ops) == 0 }

// Ops returns the accumulated wire op list, in emission order.
func (c *Context) Ops() []crdtpatch.Op { return c.ops }

// Patch returns the synthesized patch reflecting every mutation recorded so
// far, suitable for local interpretation ahead of the backend's own patch
// (optimistic local application), or nil if nothing changed.
func (c *Context) Patch() *crdtpatch.Patch {
	if len(c.diffs) == 0 {
		return nil
	}
	nodes := make(map[common.ObjectID]*crdtpatch.NodeDiff, len(c.diffs))
	for id, d := range c.diffs {
		nodes[id] = d
	}
	maxOp := c.nextOp - 1
	return &crdtpatch.Patch{
		Actor: &c.actor,
		MaxOp: maxOp,
		Nodes: nodes,
	}
}

func (c *Context) reserve() common.OpID {
	id := common.OpID{Counter: c.nextOp, Actor: c.actor}
	c.nextOp++
	return id
}

func (c *Context) reserveRun(n int) common.OpID {
	base := common.OpID{Counter: c.nextOp, Actor: c.actor}
	c.nextOp += uint64(n)
	return base
}

// getObject returns the shadow (clone-on-first-touch) copy of id, cloning
// it from the base snapshot on first touch within this change.
func (c *Context) getObject(id common.ObjectID) (crdt.Object, error) {
	if obj, ok := c.shadow[id]; ok {
		return obj, nil
	}
	obj, ok := c.base.Get(id)
	if !ok {
		return nil, common.ErrObjectNotFound{ID: id}
	}
	clone := obj.Clone()
	c.shadow[id] = clone
	return clone, nil
}

func (c *Context) putObject(obj crdt.Object) { c.shadow[obj.ID()] = obj }

// diffFor returns this change's in-progress NodeDiff for id, creating an
// empty one on first touch.
func (c *Context) diffFor(id common.ObjectID, kind crdt.ObjectKind) *crdtpatch.NodeDiff {
	if d, ok := c.diffs[id]; ok {
		return d
	}
	d := &crdtpatch.NodeDiff{ObjectID: id, Kind: kind}
	c.diffs[id] = d
	return d
}

func ensureProps(d *crdtpatch.NodeDiff) map[string]map[common.OpID]crdtpatch.ValueDiff {
	if d.Props == nil {
		d.Props = make(map[string]map[common.OpID]crdtpatch.ValueDiff)
	}
	return d.Props
}

// resolveChain walks path from the document root, descending through
// Map/Table objects only — a list or text object may be the final target of
// an operation but never an intermediate step, since a numeric list index
// is not a stable address to chain through. Resolution reads the shadow
// view, so a step created or changed earlier in this same change is
// visible to later operations in the chain.
func (c *Context) resolveChain(path []string) (common.ObjectID, error) {
	objID := common.RootObjectID
	for _, step := range path {
		obj, err := c.getObject(objID)
		if err != nil {
			return "", err
		}
		switch o := obj.(type) {
		case *crdt.MapObject:
			val, ok := o.Get(step)
			if !ok || !val.IsObject() {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("path step %q does not name a nested object", step)}
			}
			objID = val.ObjectRef
		case *crdt.TableObject:
			val, ok := o.GetRow(common.ObjectID(step))
			if !ok || !val.IsObject() {
				return "", common.ErrInvalidOperation{Message: fmt.Sprintf("path step %q does not name a table row", step)}
			}
			objID = val.ObjectRef
		default:
			return "", common.ErrInvalidOperation{Message: "path descends through a list or text object"}
		}
	}
	return objID, nil
}

func (c *Context) resetIncCoalesce() { c.incValid = false }

// checkMutable rejects a mutation against a frozen snapshot, so that a
// write against a document opened with WithFreeze fails fast instead of
// silently producing a patch the caller never intended to emit.
func (c *Context) checkMutable() error {
	if c.frozen {
		return common.ErrInvalidOperation{Message: "document is frozen; no mutations are permitted"}
	}
	return nil
}

func valuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
