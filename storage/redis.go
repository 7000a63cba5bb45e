package storage

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/homveloper/luvjson/crdtpatch"
)

// RedisAdapter persists change logs and snapshots in Redis: each document's
// changes live in a hash keyed by seq, its snapshot in a plain string key,
// and its id in a set tracking every known document.
type RedisAdapter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAdapter wraps an already-configured *redis.Client. The caller
// owns the client's lifecycle; Close does not close it.
func NewRedisAdapter(client *redis.Client, keyPrefix string) *RedisAdapter {
	return &RedisAdapter{client: client, keyPrefix: keyPrefix}
}

func (a *RedisAdapter) changesKey(documentID string) string {
	return a.keyPrefix + ":changes:" + documentID
}

func (a *RedisAdapter) snapshotKey(documentID string) string {
	return a.keyPrefix + ":snapshot:" + documentID
}

func (a *RedisAdapter) documentSetKey() string {
	return a.keyPrefix + ":docs"
}

func (a *RedisAdapter) AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error {
	pipe := a.client.TxPipeline()
	pipe.HSet(ctx, a.changesKey(documentID), strconv.FormatUint(seq, 10), []byte(change))
	pipe.SAdd(ctx, a.documentSetKey(), documentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "append change for %s", documentID)
	}
	return nil
}

func (a *RedisAdapter) LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error) {
	fields, err := a.client.HGetAll(ctx, a.changesKey(documentID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "load changes for %s", documentID)
	}
	seqs := make([]uint64, 0, len(fields))
	for seqStr := range fields {
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse seq field %q", seqStr)
		}
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	out := make([]crdtpatch.EncodedChange, len(seqs))
	for i, seq := range seqs {
		out[i] = crdtpatch.EncodedChange(fields[strconv.FormatUint(seq, 10)])
	}
	return out, nil
}

func (a *RedisAdapter) SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error {
	if err := a.client.Set(ctx, a.snapshotKey(documentID), snapshot, 0).Err(); err != nil {
		return errors.Wrapf(err, "save snapshot for %s", documentID)
	}
	return nil
}

func (a *RedisAdapter) LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error) {
	data, err := a.client.Get(ctx, a.snapshotKey(documentID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load snapshot for %s", documentID)
	}
	return data, true, nil
}

func (a *RedisAdapter) ListDocuments(ctx context.Context) ([]string, error) {
	ids, err := a.client.SMembers(ctx, a.documentSetKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *RedisAdapter) DeleteDocument(ctx context.Context, documentID string) error {
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, a.changesKey(documentID))
	pipe.Del(ctx, a.snapshotKey(documentID))
	pipe.SRem(ctx, a.documentSetKey(), documentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "delete document %s", documentID)
	}
	return nil
}

// Close is a no-op: the *redis.Client is owned by the caller.
func (a *RedisAdapter) Close() error { return nil }

var _ Adapter = (*RedisAdapter)(nil)
