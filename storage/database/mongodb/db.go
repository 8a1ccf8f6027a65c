// Package mongodb is the MongoDB backend.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/csbssync/portal/core"
)

// Collections
const (
	usersCollection         = "users"
	worksCollection         = "works"
	topicsCollection        = "studies"
	materialsCollection     = "materials"
	announcementsCollection = "announcements"
)

// maxAttempts bounds the retries of UpsertWorkStatus when the document changes under it.
const maxAttempts = 10

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

type Options struct {
	URI            string
	Name           string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// Open connects to the server and waits until it answers.
func Open(ctx context.Context, opts Options) (*DB, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &DB{client: client, db: client.Database(opts.Name)}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	for attempts := 1; attempts <= 30; attempts++ {
		if err = client.Ping(ctx, nil); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(err, "DB ping timeout")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email1", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		worksCollection: {
			{Keys: newestFirst},
			{Keys: bson.D{{Key: "status.userId", Value: 1}}},
		},
		topicsCollection:        {{Keys: newestFirst}},
		announcementsCollection: {{Keys: newestFirst}},
		materialsCollection:     {{Keys: bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// objectID parses a hex id; malformed ids can never match a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D) ([]T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, core.NewStorageError("find "+coll.Name(), err)
	}
	docs := make([]T, 0)
	if err = cur.All(ctx, &docs); err != nil {
		return nil, core.NewStorageError("decode "+coll.Name(), err)
	}
	return docs, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	return oid, nil
}

// deleteByID returns notFound when nothing was deleted.
func deleteByID(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	oid, ok := objectID(id)
	if !ok {
		return notFound
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return core.NewStorageError("delete "+coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
