// Package backend defines the narrow seam between the frontend and
// whatever authoritative change log actually orders and persists changes,
// plus a minimal in-process reference implementation used by docengine's
// own tests and by cmd/luvjsonctl when no remote backend is configured.
package backend

import (
	"github.com/homveloper/luvjson/crdtpatch"
)

// Backend is the frontend's only dependency on the rest of the system: a
// way to initialize per-document state, and a way to submit a local change
// for ordering against that state. Everything about how changes are
// transported, merged, or persisted across replicas is the backend's
// business, not the frontend's.
type Backend interface {
	// Init returns the backend's opaque per-document state for a brand new
	// document.
	Init() (interface{}, error)

	// ApplyLocalChange orders req against state and returns the successor
	// state, the patch describing what changed, and the encoded change
	// record to keep as history.
	ApplyLocalChange(state interface{}, req crdtpatch.ChangeRequest) (newState interface{}, patch *crdtpatch.Patch, encoded crdtpatch.EncodedChange, err error)
}
