package mongostore

import (
	"context"
	"errors"
	"fmt"

	"slotbook/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements store.Store on top of a MongoDB database. Documents
// are addressed by an application-level "id" field rather than _id, so
// ids stay plain strings end to end.
type Mongo struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return toDoc(raw), nil
}

func (m *Mongo) Put(ctx context.Context, collection, id string, doc store.Doc) error {
	set := bson.M{"id": id}
	for k, v := range doc {
		set[k] = v
	}
	_, err := m.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// ConditionalUpdate folds the expected fields into the update filter, so
// the re-validation and the write land on the server as one atomic
// UpdateOne. A zero match against an existing document means the
// expectation went stale.
func (m *Mongo) ConditionalUpdate(ctx context.Context, collection, id string, expected, set store.Doc) error {
	filter := bson.M{"id": id}
	for k, v := range expected {
		filter[k] = v
	}
	update := bson.M{}
	for k, v := range set {
		update[k] = v
	}

	res, err := m.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return unavailable("conditional update", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := m.db.Collection(collection).CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return unavailable("conditional update", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (m *Mongo) Query(ctx context.Context, collection string, filter store.Doc) ([]store.Doc, error) {
	q := bson.M{}
	for k, v := range filter {
		q[k] = v
	}
	cur, err := m.db.Collection(collection).Find(ctx, q)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, unavailable("query", err)
	}
	docs := make([]store.Doc, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDoc(raw))
	}
	return docs, nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return unavailable("delete", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *Mongo) CreateWithGeneratedID(ctx context.Context, collection string, doc store.Doc) (string, error) {
	id := uuid.NewString()
	insert := bson.M{"id": id}
	for k, v := range doc {
		insert[k] = v
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, insert); err != nil {
		return "", unavailable("create", err)
	}
	return id, nil
}

func toDoc(raw bson.M) store.Doc {
	doc := make(store.Doc, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		if arr, ok := v.(bson.A); ok {
			v = []any(arr)
		}
		doc[k] = v
	}
	return doc
}

func unavailable(op string, err error) error {
	return fmt.Errorf("mongo %s: %v: %w", op, err, store.ErrUnavailable)
}
