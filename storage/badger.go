package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/homveloper/luvjson/crdtpatch"
)

const (
	badgerChangePrefix   = "change:"
	badgerSnapshotPrefix = "snapshot:"
)

// BadgerAdapter persists change logs and snapshots in an embedded BadgerDB,
// keying changes by document id and zero-padded seq so that a prefix scan
// yields them in order.
type BadgerAdapter struct {
	db       *badger.DB
	gcCancel chan struct{}
}

// NewBadgerAdapter opens (or creates) a BadgerDB at path and starts its
// background value-log garbage collector.
func NewBadgerAdapter(path string) (*BadgerAdapter, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger db at %s", path)
	}

	a := &BadgerAdapter{db: db, gcCancel: make(chan struct{})}
	go a.runGC()
	return a, nil
}

func (a *BadgerAdapter) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-a.gcCancel:
			return
		case <-ticker.C:
			for a.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func changeKey(documentID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", badgerChangePrefix, documentID, seq))
}

func changeKeyPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", badgerChangePrefix, documentID))
}

func snapshotKeyFor(documentID string) []byte {
	return []byte(badgerSnapshotPrefix + documentID)
}

func (a *BadgerAdapter) AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(changeKey(documentID, seq), []byte(change))
	})
	if err != nil {
		return errors.Wrapf(err, "append change for %s", documentID)
	}
	return nil
}

func (a *BadgerAdapter) LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error) {
	var out []crdtpatch.EncodedChange
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := changeKeyPrefix(documentID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				cp := make([]byte, len(val))
				copy(cp, val)
				out = append(out, crdtpatch.EncodedChange(cp))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load changes for %s", documentID)
	}
	return out, nil
}

func (a *BadgerAdapter) SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKeyFor(documentID), snapshot)
	})
	if err != nil {
		return errors.Wrapf(err, "save snapshot for %s", documentID)
	}
	return nil
}

func (a *BadgerAdapter) LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error) {
	var out []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKeyFor(documentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = make([]byte, len(val))
			copy(out, val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load snapshot for %s", documentID)
	}
	return out, true, nil
}

func (a *BadgerAdapter) ListDocuments(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			var documentID string
			switch {
			case strings.HasPrefix(key, badgerChangePrefix):
				rest := strings.TrimPrefix(key, badgerChangePrefix)
				documentID = rest[:strings.LastIndex(rest, ":")]
			case strings.HasPrefix(key, badgerSnapshotPrefix):
				documentID = strings.TrimPrefix(key, badgerSnapshotPrefix)
			default:
				continue
			}
			seen[documentID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *BadgerAdapter) DeleteDocument(ctx context.Context, documentID string) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := changeKeyPrefix(documentID)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		if err := txn.Delete(snapshotKeyFor(documentID)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "delete document %s", documentID)
	}
	return nil
}

// Close stops the background GC loop and closes the underlying BadgerDB.
func (a *BadgerAdapter) Close() error {
	close(a.gcCancel)
	return a.db.Close()
}

var _ Adapter = (*BadgerAdapter)(nil)
