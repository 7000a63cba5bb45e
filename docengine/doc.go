// Package docengine implements the document lifecycle: the stateful wrapper
// around an immutable crdt.Snapshot that exposes Init/From/Change/
// EmptyChange/ApplyPatch and the bookkeeping a real application needs
// (actor identity, the in-flight request queue when no backend is
// configured, conflict and object lookups).
package docengine

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdt"
	"github.com/homveloper/luvjson/crdtedit"
	"github.com/homveloper/luvjson/crdtpatch"
)

// inflightRequest is one entry of the no-backend request queue: the local
// change's actor/seq, and the snapshot it was built against, rebased as
// authoritative patches arrive for requests ahead of it.
type inflightRequest struct {
	Actor  common.ActorID
	Seq    uint64
	Before crdt.Snapshot
}

// Doc is a mutable handle around an immutable crdt.Snapshot: the snapshot
// itself never mutates in place, but Doc's own fields (the current
// snapshot, sequence counter, request queue, backend state) advance with
// every lifecycle operation, the way crdtstorage.Document advances in
// place across Edit calls.
type Doc struct {
	snapshot crdt.Snapshot
	actorID  common.ActorID
	opts     *Options

	seq             uint64
	requests        []inflightRequest
	backendState    interface{}
	lastLocalChange crdtpatch.EncodedChange

	changing bool
}

// Init produces an empty document. An actor id is generated unless
// WithDeferredActorID is set, in which case SetActorID must be called
// before the first Change. If a backend adapter is configured, it is
// initialized here and its opaque state is stored on the document.
func Init(opts ...Option) (*Doc, error) {
	o := newOptions(opts...)

	actorID := o.ActorID
	if actorID == "" && !o.DeferActorID {
		actorID = common.NewActorID()
	}
	if actorID != "" {
		if err := actorID.Validate(); err != nil {
			return nil, err
		}
	}

	snapshot := crdt.Empty()
	snapshot.Frozen = o.Freeze

	d := &Doc{
		snapshot: snapshot,
		actorID:  actorID,
		opts:     o,
	}

	if o.Backend != nil {
		state, err := o.Backend.Init()
		if err != nil {
			return nil, errors.Wrap(err, "init backend")
		}
		d.backendState = state
	}

	o.Logger.Debug("document initialized", zap.String("actor", string(actorID)))
	return d, nil
}

// From is Init followed by a single change assigning every top-level
// property of initial.
func From(initial map[string]interface{}, opts ...Option) (*Doc, error) {
	d, err := Init(opts...)
	if err != nil {
		return nil, err
	}
	_, err = d.Change("initialize", func(ctx *crdtedit.Context) error {
		for key, value := range initial {
			if err := ctx.SetMapKey(nil, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Doc) guardNotChanging() error {
	if d.changing {
		return common.ErrInvalidOperation{Message: "operation not allowed while a change is in progress on this document"}
	}
	return nil
}

// Change invokes fn with a mutable view of the document rooted at its
// current snapshot. A callback that performs no mutations is a no-op: it
// returns (nil, nil) and the document is left unchanged. A callback that
// returns an error leaves the document unchanged — the context's partial
// work is discarded. Nesting a Change inside another Change's callback is
// refused.
func (d *Doc) Change(message string, fn func(ctx *crdtedit.Context) error) (*crdtpatch.Change, error) {
	if err := d.guardNotChanging(); err != nil {
		return nil, err
	}

	ctx := crdtedit.NewContext(d.snapshot, d.actorID)
	d.changing = true
	err := fn(ctx)
	d.changing = false
	if err != nil {
		return nil, err
	}
	if ctx.Empty() {
		return nil, nil
	}

	return d.submitChange(message, ctx.Ops(), ctx.Patch())
}

// EmptyChange submits a change with no ops, used to acknowledge observed
// dependencies without mutating the document.
func (d *Doc) EmptyChange(message string) (*crdtpatch.Change, error) {
	if err := d.guardNotChanging(); err != nil {
		return nil, err
	}
	return d.submitChange(message, nil, nil)
}

// submitChange builds the change record for ops/patch (patch may be nil
// for EmptyChange) and round-trips it through the configured backend, or
// enqueues it as an in-flight request when no backend is configured.
func (d *Doc) submitChange(message string, ops []crdtpatch.Op, patch *crdtpatch.Patch) (*crdtpatch.Change, error) {
	change := &crdtpatch.Change{
		Actor:   d.actorID,
		Seq:     d.seq + 1,
		StartOp: d.snapshot.State.MaxOp + 1,
		Time:    time.Now().UnixMilli(),
		Message: message,
		Deps:    append([]common.OpID(nil), d.snapshot.State.Deps...),
		Ops:     ops,
	}

	before := d.snapshot

	if d.opts.Backend != nil {
		if _, err := crdtpatch.Interpret(d.snapshot, patch); err != nil {
			return nil, errors.Wrap(err, "optimistic local fold")
		}

		newBackendState, backendPatch, encoded, err := d.opts.Backend.ApplyLocalChange(d.backendState, *change)
		if err != nil {
			return nil, errors.Wrap(err, "apply local change")
		}

		final, err := crdtpatch.Interpret(before, backendPatch)
		if err != nil {
			return nil, errors.Wrap(err, "authoritative fold")
		}
		final.Frozen = d.opts.Freeze

		d.snapshot = final
		d.backendState = newBackendState
		d.lastLocalChange = encoded
		d.seq = change.Seq

		if d.opts.OnPatch != nil {
			d.opts.OnPatch(backendPatch, before, d.snapshot, true, encoded)
		}
		return change, nil
	}

	d.requests = append(d.requests, inflightRequest{Actor: d.actorID, Seq: change.Seq, Before: before})

	if patch != nil {
		next, err := crdtpatch.Interpret(d.snapshot, patch)
		if err != nil {
			return nil, errors.Wrap(err, "optimistic local fold")
		}
		// The synthesized patch carries no Deps of its own, so
		// mergeStateVector leaves the prior value in place; reset it
		// explicitly so a later change in the same gap doesn't replay
		// stale deps before any authoritative patch has arrived.
		next.State.Deps = nil
		next.Frozen = d.opts.Freeze
		d.snapshot = next
	}
	d.seq = change.Seq

	if d.opts.OnPatch != nil {
		d.opts.OnPatch(patch, before, d.snapshot, true, nil)
	}
	return change, nil
}

// ApplyBackendPatch installs an authoritative patch when a backend adapter
// is configured, requiring the adapter's updated opaque state.
func (d *Doc) ApplyBackendPatch(patch *crdtpatch.Patch, newBackendState interface{}) error {
	if err := d.guardNotChanging(); err != nil {
		return err
	}
	if d.opts.Backend == nil {
		return common.ErrProtocol{Message: "no backend adapter configured; use ApplyPatch"}
	}
	if newBackendState == nil {
		return common.ErrProtocol{Message: "missing backend state"}
	}
	if patch != nil && patch.Clock == nil {
		return common.ErrProtocol{Message: "missing clock on authoritative patch"}
	}

	before := d.snapshot
	next, err := crdtpatch.Interpret(d.snapshot, patch)
	if err != nil {
		return errors.Wrap(err, "apply backend patch")
	}
	next.Frozen = d.opts.Freeze
	d.snapshot = next
	d.backendState = newBackendState
	if patch != nil && patch.Actor != nil && *patch.Actor == d.actorID && patch.Seq != nil {
		d.seq = *patch.Seq
	}

	if d.opts.OnPatch != nil {
		d.opts.OnPatch(patch, before, d.snapshot, false, nil)
	}
	return nil
}

// ApplyPatch installs an authoritative patch against the no-backend
// in-flight request queue, per spec.md §4.5: the patch folds against the
// head request's pre-change snapshot (or the current document when the
// queue is empty); a patch carrying this actor's seq must match the head
// request's seq or the call fails with a protocol error and the head is
// dequeued on a match. Remaining requests are rebased onto the fold's
// result. The document's user-visible snapshot only adopts the fold's
// result once the queue drains — while requests remain pending, the
// caller's own optimistic edits stay visible.
func (d *Doc) ApplyPatch(patch *crdtpatch.Patch) error {
	if err := d.guardNotChanging(); err != nil {
		return err
	}
	if d.opts.Backend != nil {
		return common.ErrProtocol{Message: "backend adapter configured; use ApplyBackendPatch"}
	}
	if patch == nil {
		return nil
	}
	if patch.Clock == nil {
		return common.ErrProtocol{Message: "missing clock on authoritative patch"}
	}

	before := d.snapshot
	base := d.snapshot
	dequeueHead := false

	if len(d.requests) > 0 {
		head := d.requests[0]
		base = head.Before
		if patch.Actor != nil && *patch.Actor == head.Actor {
			if patch.Seq == nil || *patch.Seq != head.Seq {
				return common.ErrProtocol{Message: "mismatched sequence number"}
			}
			dequeueHead = true
		}
	}

	next, err := crdtpatch.Interpret(base, patch)
	if err != nil {
		return errors.Wrap(err, "apply patch")
	}

	if dequeueHead {
		d.requests = d.requests[1:]
	}
	for i := range d.requests {
		d.requests[i].Before = next
	}

	if len(d.requests) == 0 {
		next.Frozen = d.opts.Freeze
		d.snapshot = next
	}

	if d.opts.OnPatch != nil {
		d.opts.OnPatch(patch, before, d.snapshot, false, nil)
	}
	return nil
}

// GetConflicts returns the candidate map for key on object id, present
// only when the candidate set has size > 1.
func (d *Doc) GetConflicts(id common.ObjectID, key string) map[common.OpID]crdt.Value {
	return d.snapshot.GetConflicts(id, key)
}

// GetConflictsAtIndex is the list/text analog of GetConflicts.
func (d *Doc) GetConflictsAtIndex(id common.ObjectID, idx int) map[common.OpID]crdt.Value {
	return d.snapshot.GetConflictsAtIndex(id, idx)
}

// GetObjectByID returns the cached object for id. Forbidden while a Change
// callback is in progress, since path information is unavailable there.
func (d *Doc) GetObjectByID(id common.ObjectID) (crdt.Object, error) {
	if err := d.guardNotChanging(); err != nil {
		return nil, err
	}
	obj, ok := d.snapshot.Get(id)
	if !ok {
		return nil, common.ErrObjectNotFound{ID: id}
	}
	return obj, nil
}

// GetElementIDs returns the live ElemIDs of a list/text object, in order.
func (d *Doc) GetElementIDs(id common.ObjectID) ([]common.ElemID, bool) {
	return d.snapshot.GetElementIDs(id)
}

// GetByPath resolves a key path (one key or row id per step) from the root
// and returns the raw value found there, for callers (the CLI's -key
// printout) that think in paths rather than ObjectIDs.
func (d *Doc) GetByPath(path []string) (crdt.Value, error) {
	if err := d.guardNotChanging(); err != nil {
		return crdt.Value{}, err
	}
	return crdtedit.NewQuery(d.snapshot).Get(path)
}

// GetConflictsByPath is the path-based counterpart to GetConflicts.
func (d *Doc) GetConflictsByPath(path []string) (map[common.OpID]crdt.Value, error) {
	if err := d.guardNotChanging(); err != nil {
		return nil, err
	}
	return crdtedit.NewQuery(d.snapshot).Conflicts(path)
}

// GetActorID returns the document's current actor id.
func (d *Doc) GetActorID() common.ActorID { return d.actorID }

// SetActorID validates and installs a new actor id; it does not touch the
// document tree.
func (d *Doc) SetActorID(actorID common.ActorID) error {
	if err := d.guardNotChanging(); err != nil {
		return err
	}
	if err := actorID.Validate(); err != nil {
		return err
	}
	d.actorID = actorID
	return nil
}

// GetLastLocalChange returns the backend-provided encoded form of the last
// local change, when one has been recorded.
func (d *Doc) GetLastLocalChange() (crdtpatch.EncodedChange, bool) {
	if d.lastLocalChange == nil {
		return nil, false
	}
	return d.lastLocalChange, true
}

// GetBackendState returns the backend adapter's current opaque state, when
// a backend adapter is configured.
func (d *Doc) GetBackendState() (interface{}, bool) {
	if d.opts.Backend == nil {
		return nil, false
	}
	return d.backendState, true
}

// Snapshot returns the document's current immutable snapshot.
func (d *Doc) Snapshot() crdt.Snapshot { return d.snapshot }

// Root returns the document's root map object.
func (d *Doc) Root() *crdt.MapObject { return d.snapshot.Root }

// RequestQueueDepth returns the number of in-flight local requests awaiting
// an authoritative patch. Always zero when a backend adapter is configured.
func (d *Doc) RequestQueueDepth() int { return len(d.requests) }
