package common

import "fmt"

// ErrInvalidActorID is returned when an ActorID fails validation.
type ErrInvalidActorID struct {
	Value  string
	Reason string
}

func (e ErrInvalidActorID) Error() string {
	return fmt.Sprintf("invalid actor id %q: %s", e.Value, e.Reason)
}

// ErrInvalidOpID is returned when an OpID fails to parse.
type ErrInvalidOpID struct {
	Value  string
	Reason string
}

func (e ErrInvalidOpID) Error() string {
	return fmt.Sprintf("invalid op id %q: %s", e.Value, e.Reason)
}

// ErrInvalidObjectKind is returned when a patch or op names an object kind
// the interpreter does not recognize.
type ErrInvalidObjectKind struct {
	Kind string
}

func (e ErrInvalidObjectKind) Error() string {
	return fmt.Sprintf("invalid object kind: %s", e.Kind)
}

// ErrObjectNotFound is returned when a lookup by ObjectID misses the cache.
type ErrObjectNotFound struct {
	ID ObjectID
}

func (e ErrObjectNotFound) Error() string {
	return fmt.Sprintf("object not found: %s", e.ID)
}

// ErrInvalidOperation is returned for misuse of the change-capture API:
// out-of-bounds indices, counter overwrites, bad map keys, and similar.
type ErrInvalidOperation struct {
	Message string
}

func (e ErrInvalidOperation) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Message)
}

// ErrProtocol is returned for violations of the lifecycle protocol between
// the frontend and the backend/request queue: mismatched sequence numbers,
// missing backend state, missing clock.
type ErrProtocol struct {
	Message string
}

func (e ErrProtocol) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// ErrInternalConsistency is returned when a patch references state that
// cannot exist under correct frontend/backend agreement: an ObjectId
// mismatch at a slot, an unknown edit action, or similar.
type ErrInternalConsistency struct {
	Message string
}

func (e ErrInternalConsistency) Error() string {
	return fmt.Sprintf("internal consistency error: %s", e.Message)
}
