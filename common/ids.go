// Package common defines the identifier and value model shared by every
// other package in this module: actor ids, operation ids, element ids,
// object ids, and the closed set of value datatypes a document cell may
// carry.
package common

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ActorID is an opaque, lowercase-hex, even-length byte string identifying
// the author of a run of operations. It is constant for the lifetime of a
// document instance once assigned.
type ActorID string

// NewActorID generates a fresh ActorID from a random UUID, hex-encoded with
// no separators, matching the teacher's SessionID generation style.
func NewActorID() ActorID {
	u := uuid.New()
	return ActorID(hex.EncodeToString(u[:]))
}

// Validate reports whether a is a well-formed ActorID: non-empty, even
// length, lowercase hex only.
func (a ActorID) Validate() error {
	s := string(a)
	if s == "" {
		return ErrInvalidActorID{Value: s, Reason: "empty"}
	}
	if len(s)%2 != 0 {
		return ErrInvalidActorID{Value: s, Reason: "odd length"}
	}
	for _, r := range s {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return ErrInvalidActorID{Value: s, Reason: "not lowercase hex"}
		}
	}
	return nil
}

func (a ActorID) String() string { return string(a) }

// HeadElemID is the sentinel ElemID denoting "before the first element" /
// "the head of the list".
const HeadElemID = ElemID("")

// RootObjectID is the fixed sentinel ObjectID of the document root.
const RootObjectID = ObjectID("_root")

// OpID is a Lamport pair (counter, actor). Counters start at 1; zero is
// reserved for "no op" and only ever appears as the zero value.
type OpID struct {
	Counter uint64  `json:"counter"`
	Actor   ActorID `json:"actor"`
}

// NilOpID is the zero OpID, used where "no predecessor" must be represented
// distinctly from a valid OpID.
var NilOpID = OpID{}

// String renders an OpID as "counter@actor", the wire form used throughout
// change records and patches.
func (o OpID) String() string {
	return fmt.Sprintf("%d@%s", o.Counter, o.Actor)
}

func (o OpID) IsNil() bool { return o.Counter == 0 && o.Actor == "" }

// ParseOpID parses the "counter@actor" wire form.
func ParseOpID(s string) (OpID, error) {
	idx := strings.IndexByte(s, '@')
	if idx < 0 {
		return OpID{}, ErrInvalidOpID{Value: s, Reason: "missing '@'"}
	}
	counterStr, actorStr := s[:idx], s[idx+1:]
	counter, err := strconv.ParseUint(counterStr, 10, 64)
	if err != nil {
		return OpID{}, ErrInvalidOpID{Value: s, Reason: "non-numeric counter"}
	}
	actor := ActorID(actorStr)
	if err := actor.Validate(); err != nil {
		return OpID{}, ErrInvalidOpID{Value: s, Reason: "bad actor: " + err.Error()}
	}
	return OpID{Counter: counter, Actor: actor}, nil
}

// Compare orders OpIDs in Lamport order: counter ascending, then actor
// string ascending. Returns -1, 0, or 1.
func (o OpID) Compare(other OpID) int {
	if o.Counter != other.Counter {
		if o.Counter < other.Counter {
			return -1
		}
		return 1
	}
	return strings.Compare(string(o.Actor), string(other.Actor))
}

// Less reports whether o sorts strictly before other in Lamport order.
func (o OpID) Less(other OpID) bool { return o.Compare(other) < 0 }

func (o OpID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OpID) UnmarshalText(b []byte) error {
	parsed, err := ParseOpID(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MakeOpRun returns n contiguous OpIDs starting at base, sharing base's
// actor: (base.Counter+0 .. base.Counter+n-1, base.Actor). Used for
// multi-insert and multi-value set operations, which consume one counter
// per value.
func MakeOpRun(base OpID, n int) []OpID {
	if n <= 0 {
		return nil
	}
	run := make([]OpID, n)
	for i := 0; i < n; i++ {
		run[i] = OpID{Counter: base.Counter + uint64(i), Actor: base.Actor}
	}
	return run
}

// SortOpIDsDescending sorts ids by Lamport order, greatest first — the order
// the patch interpreter uses to resolve a candidate set.
func SortOpIDsDescending(ids []OpID) {
	sort.Slice(ids, func(i, j int) bool { return ids[j].Less(ids[i]) })
}

// MaxOpID returns the greatest OpID in ids. Panics on an empty slice; callers
// only invoke this on non-empty candidate sets.
func MaxOpID(ids []OpID) OpID {
	max := ids[0]
	for _, id := range ids[1:] {
		if max.Less(id) {
			max = id
		}
	}
	return max
}

// ElemID names a list/text position: either HeadElemID (before the first
// element) or the OpID of the insertion that created the position. An
// ElemID is stable for the life of the position it names.
type ElemID string

// NewElemID renders an OpID as an ElemID.
func NewElemID(id OpID) ElemID { return ElemID(id.String()) }

func (e ElemID) IsHead() bool { return e == HeadElemID }

// OpID recovers the originating OpID; only valid when !IsHead().
func (e ElemID) OpID() (OpID, error) {
	if e.IsHead() {
		return OpID{}, ErrInvalidOperation{Message: "head elemId has no OpID"}
	}
	return ParseOpID(string(e))
}

// ObjectID names an object in the document tree: RootObjectID for the root,
// or the OpID (as a string) of the make* operation that created it.
type ObjectID string

// NewObjectID renders the OpID of a make* operation as an ObjectID.
func NewObjectID(id OpID) ObjectID { return ObjectID(id.String()) }

func (o ObjectID) IsRoot() bool { return o == RootObjectID }

// OpID recovers the originating OpID; only valid when !IsRoot().
func (o ObjectID) OpID() (OpID, error) {
	if o.IsRoot() {
		return OpID{}, ErrInvalidOperation{Message: "root objectId has no OpID"}
	}
	return ParseOpID(string(o))
}
