// Package storage holds optional persistence adapters for the change log
// a backend.Backend produces. docengine.Doc never imports this package —
// these adapters are wired in from the outside, by cmd/luvjsonctl or by a
// real backend implementation, the way the teacher's crdtstorage adapters
// sit behind its own Storage interface rather than inside the CRDT core.
package storage

import (
	"context"

	"github.com/homveloper/luvjson/crdtpatch"
)

// Adapter persists a document's change log and, optionally, a snapshot of
// its latest materialized state, keyed by an opaque document id. It never
// interprets the bytes it stores.
type Adapter interface {
	// AppendChange appends an encoded change at seq to documentID's log.
	AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error

	// LoadChanges returns every encoded change recorded for documentID, in
	// seq order.
	LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error)

	// SaveSnapshot stores the latest JSON-encoded document view, replacing
	// any previous snapshot.
	SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error

	// LoadSnapshot returns the most recently saved snapshot, or
	// common.ErrObjectNotFound-style absence reported via ok=false.
	LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error)

	// ListDocuments returns every document id known to the adapter.
	ListDocuments(ctx context.Context) ([]string, error)

	// DeleteDocument removes a document's change log and snapshot.
	DeleteDocument(ctx context.Context, documentID string) error

	// Close releases resources the adapter owns. Adapters built around a
	// caller-supplied client (Redis, Mongo, SQL) leave the underlying
	// connection open for the caller to manage.
	Close() error
}
