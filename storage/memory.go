package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/homveloper/luvjson/crdtpatch"
)

type memoryDocument struct {
	changes  map[uint64]crdtpatch.EncodedChange
	snapshot []byte
}

// MemoryAdapter is an in-process Adapter backed by plain maps, used by
// default when the CLI is run with no storage configured.
type MemoryAdapter struct {
	mutex sync.RWMutex
	docs  map[string]*memoryDocument
}

// NewMemoryAdapter constructs an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{docs: make(map[string]*memoryDocument)}
}

func (a *MemoryAdapter) doc(documentID string) *memoryDocument {
	d, ok := a.docs[documentID]
	if !ok {
		d = &memoryDocument{changes: make(map[uint64]crdtpatch.EncodedChange)}
		a.docs[documentID] = d
	}
	return d
}

func (a *MemoryAdapter) AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	cp := make(crdtpatch.EncodedChange, len(change))
	copy(cp, change)
	a.doc(documentID).changes[seq] = cp
	return nil
}

func (a *MemoryAdapter) LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	d, ok := a.docs[documentID]
	if !ok {
		return nil, nil
	}
	seqs := make([]uint64, 0, len(d.changes))
	for seq := range d.changes {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	out := make([]crdtpatch.EncodedChange, len(seqs))
	for i, seq := range seqs {
		out[i] = d.changes[seq]
	}
	return out, nil
}

func (a *MemoryAdapter) SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	a.doc(documentID).snapshot = cp
	return nil
}

func (a *MemoryAdapter) LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	d, ok := a.docs[documentID]
	if !ok || d.snapshot == nil {
		return nil, false, nil
	}
	cp := make([]byte, len(d.snapshot))
	copy(cp, d.snapshot)
	return cp, true, nil
}

func (a *MemoryAdapter) ListDocuments(ctx context.Context) ([]string, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	ids := make([]string, 0, len(a.docs))
	for id := range a.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *MemoryAdapter) DeleteDocument(ctx context.Context, documentID string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	delete(a.docs, documentID)
	return nil
}

func (a *MemoryAdapter) Close() error { return nil }

var _ Adapter = (*MemoryAdapter)(nil)
