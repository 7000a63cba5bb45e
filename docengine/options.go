package docengine

import (
	"go.uber.org/zap"

	"github.com/homveloper/luvjson/backend"
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdtpatch"
)

// PatchCallback is invoked after every patch folded into a document, local
// or authoritative, mirroring spec.md §4.5's optional patch callback.
type PatchCallback func(patch *crdtpatch.Patch, before, after interface{}, local bool, encoded crdtpatch.EncodedChange)

// Options configures a Doc at Init/From time.
type Options struct {
	ActorID       common.ActorID
	DeferActorID  bool
	Freeze        bool
	Backend       backend.Backend
	OnPatch       PatchCallback
	Logger        *zap.Logger
}

// Option mutates an Options value under construction.
type Option func(*Options)

// WithActorID fixes the document's actor id instead of generating one.
func WithActorID(id common.ActorID) Option {
	return func(o *Options) { o.ActorID = id }
}

// WithDeferredActorID skips actor id generation at Init time; SetActorID
// must be called before the first Change.
func WithDeferredActorID() Option {
	return func(o *Options) { o.DeferActorID = true }
}

// WithFreeze marks the document read-only: every crdtedit.Context opened
// against it rejects mutations up front, so that accidental writes against
// a document meant to be immutable fail fast instead of silently producing
// a patch.
func WithFreeze() Option {
	return func(o *Options) { o.Freeze = true }
}

// WithBackend attaches a Backend adapter; without one, Change enqueues
// in-flight requests instead of round-tripping synchronously.
func WithBackend(b backend.Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithPatchCallback registers a callback invoked after every patch fold.
func WithPatchCallback(cb PatchCallback) Option {
	return func(o *Options) { o.OnPatch = cb }
}

// WithLogger attaches a structured logger; Init defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func newOptions(opts ...Option) *Options {
	o := &Options{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
