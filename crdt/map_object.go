package crdt

import "github.com/homveloper/luvjson/common"

// MapObject is an unordered key→value mapping. Every key holds a conflict
// index (key → candidate set); the resolved value is the candidate with the
// greatest OpID. Table rows reuse this same structure per row.
type MapObject struct {
	id        common.ObjectID
	conflicts map[string][]Candidate
}

// NewMapObject creates an empty map object with the given identity.
func NewMapObject(id common.ObjectID) *MapObject {
	return &MapObject{id: id, conflicts: make(map[string][]Candidate)}
}

func (m *MapObject) ID() common.ObjectID { return m.id }
func (m *MapObject) Kind() ObjectKind    { return KindMap }

func (m *MapObject) Clone() Object {
	out := &MapObject{id: m.id, conflicts: make(map[string][]Candidate, len(m.conflicts))}
	for k, v := range m.conflicts {
		out.conflicts[k] = cloneCandidates(v)
	}
	return out
}

// Keys returns the map's present keys (non-empty candidate sets), order
// unspecified.
func (m *MapObject) Keys() []string {
	keys := make([]string, 0, len(m.conflicts))
	for k, cs := range m.conflicts {
		if len(cs) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Get returns the resolved value for key, and ok=false when absent.
func (m *MapObject) Get(key string) (Value, bool) {
	best, ok := resolve(m.conflicts[key])
	if !ok {
		return Value{}, false
	}
	return best.Value, true
}

// ResolvedOpID returns the OpID of the resolved candidate for key.
func (m *MapObject) ResolvedOpID(key string) (common.OpID, bool) {
	best, ok := resolve(m.conflicts[key])
	if !ok {
		return common.OpID{}, false
	}
	return best.OpID, true
}

// CandidateOpIDs returns every OpID currently in key's candidate set
// (the predecessors a new write to this key would overwrite).
func (m *MapObject) CandidateOpIDs(key string) []common.OpID {
	cs := m.conflicts[key]
	ids := make([]common.OpID, len(cs))
	for i, c := range cs {
		ids[i] = c.OpID
	}
	return ids
}

// Conflicts returns the full candidate set for key, keyed by OpID,
// when the set has size >= 2; otherwise returns nil, matching
// getConflicts's "size >= 2" contract.
func (m *MapObject) Conflicts(key string) map[common.OpID]Value {
	cs := m.conflicts[key]
	if len(cs) < 2 {
		return nil
	}
	out := make(map[common.OpID]Value, len(cs))
	for _, c := range cs {
		out[c.OpID] = c.Value
	}
	return out
}

// SetCandidates installs the full candidate list for key (used by the
// interpreter, which recomputes each patch's candidate set for the key from
// scratch). An empty list removes the key. Not for general application use.
func (m *MapObject) SetCandidates(key string, candidates []Candidate) {
	if len(candidates) == 0 {
		delete(m.conflicts, key)
		return
	}
	m.conflicts[key] = candidates
}

func (m *MapObject) candidatesFor(key string) []Candidate {
	return m.conflicts[key]
}
