package storage

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homveloper/luvjson/crdtpatch"
)

type mongoChangeEntry struct {
	Seq  uint64 `bson:"seq"`
	Data []byte `bson:"data"`
}

type mongoDocument struct {
	ID       string             `bson:"_id"`
	Changes  []mongoChangeEntry `bson:"changes"`
	Snapshot []byte             `bson:"snapshot"`
}

// MongoAdapter persists one collection document per logical document, with
// its change log as an embedded array and its snapshot as a sibling field.
type MongoAdapter struct {
	collection *mongo.Collection
}

// NewMongoAdapter wraps an already-configured *mongo.Collection. The caller
// owns the client's lifecycle; Close does not disconnect it.
func NewMongoAdapter(collection *mongo.Collection) *MongoAdapter {
	return &MongoAdapter{collection: collection}
}

func (a *MongoAdapter) AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error {
	filter := bson.M{"_id": documentID}
	update := bson.M{"$push": bson.M{"changes": mongoChangeEntry{Seq: seq, Data: []byte(change)}}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrapf(err, "append change for %s", documentID)
	}
	return nil
}

func (a *MongoAdapter) LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error) {
	var doc mongoDocument
	err := a.collection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load changes for %s", documentID)
	}

	sort.Slice(doc.Changes, func(i, j int) bool { return doc.Changes[i].Seq < doc.Changes[j].Seq })
	out := make([]crdtpatch.EncodedChange, len(doc.Changes))
	for i, entry := range doc.Changes {
		out[i] = crdtpatch.EncodedChange(entry.Data)
	}
	return out, nil
}

func (a *MongoAdapter) SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error {
	filter := bson.M{"_id": documentID}
	update := bson.M{"$set": bson.M{"snapshot": snapshot}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrapf(err, "save snapshot for %s", documentID)
	}
	return nil
}

func (a *MongoAdapter) LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error) {
	var doc mongoDocument
	err := a.collection.FindOne(ctx, bson.M{"_id": documentID}, options.FindOne().SetProjection(bson.M{"snapshot": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load snapshot for %s", documentID)
	}
	if doc.Snapshot == nil {
		return nil, false, nil
	}
	return doc.Snapshot, true, nil
}

func (a *MongoAdapter) ListDocuments(ctx context.Context) ([]string, error) {
	cursor, err := a.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode document id")
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate documents")
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *MongoAdapter) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := a.collection.DeleteOne(ctx, bson.M{"_id": documentID}); err != nil {
		return errors.Wrapf(err, "delete document %s", documentID)
	}
	return nil
}

// Close is a no-op: the *mongo.Collection's client is owned by the caller.
func (a *MongoAdapter) Close() error { return nil }

var _ Adapter = (*MongoAdapter)(nil)
