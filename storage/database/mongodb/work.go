package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/work"
)

type (
	workDoc struct {
		ID        primitive.ObjectID `bson:"_id,omitempty"`
		Subject   string             `bson:"subject"`
		Work      string             `bson:"work"`
		Deadline  core.Date          `bson:"deadline"`
		FileURL   string             `bson:"fileUrl"`
		AddedBy   string             `bson:"addedBy"`
		Status    []statusDoc        `bson:"status"`
		CreatedAt time.Time          `bson:"createdAt"`
		UpdatedAt time.Time          `bson:"updatedAt"`
	}

	statusDoc struct {
		UserID   string `bson:"userId"`
		Username string `bson:"username"`
		Email    string `bson:"email"`
		State    string `bson:"state"`
	}
)

func newWorkDoc(w work.Work) workDoc {
	status := make([]statusDoc, 0, len(w.Status))
	for _, e := range w.Status {
		status = append(status, newStatusDoc(e))
	}
	return workDoc{
		Subject:   w.Subject,
		Work:      w.Description,
		Deadline:  w.Deadline,
		FileURL:   w.FileURL,
		AddedBy:   w.AddedBy,
		Status:    status,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func newStatusDoc(e work.StatusEntry) statusDoc {
	return statusDoc{UserID: e.UserID, Username: e.Username, Email: e.Email, State: e.State}
}

func (d workDoc) work() work.Work {
	status := make([]work.StatusEntry, 0, len(d.Status))
	for _, s := range d.Status {
		status = append(status, work.StatusEntry{UserID: s.UserID, Username: s.Username, Email: s.Email, State: s.State})
	}
	return work.Work{
		ID:          d.ID.Hex(),
		Subject:     d.Subject,
		Description: d.Work,
		Deadline:    d.Deadline,
		FileURL:     d.FileURL,
		AddedBy:     d.AddedBy,
		Status:      status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type workRepository struct {
	coll *mongo.Collection
}

var _ work.Repository = (*workRepository)(nil)

func NewWorkRepository(db *DB) work.Repository {
	return &workRepository{coll: db.collection(worksCollection)}
}

func (repo *workRepository) CreateWork(ctx context.Context, w work.Work) (work.Work, error) {
	d := newWorkDoc(w)
	oid, err := insertOne(ctx, repo.coll, d)
	if err != nil {
		return work.Work{}, core.NewStorageError("insert works", err)
	}
	d.ID = oid
	return d.work(), nil
}

func (repo *workRepository) QueryAllWorks(ctx context.Context) ([]work.Work, error) {
	docs, err := findAll[workDoc](ctx, repo.coll, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	works := make([]work.Work, 0, len(docs))
	for _, d := range docs {
		works = append(works, d.work())
	}
	return works, nil
}

func (repo *workRepository) GetWorkByID(ctx context.Context, id string) (work.Work, error) {
	oid, ok := objectID(id)
	if !ok {
		return work.Work{}, work.ErrNotFound
	}
	var d workDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return work.Work{}, work.ErrNotFound
		}
		return work.Work{}, core.NewStorageError("find works", err)
	}
	return d.work(), nil
}

func (repo *workRepository) DeleteWorkByID(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.coll, id, work.ErrNotFound)
}

// UpsertWorkStatus updates the entry in place with a positional $set, or appends it with a $push
// guarded against an entry of the same user created meanwhile. Each step is a single atomic update.
func (repo *workRepository) UpsertWorkStatus(ctx context.Context, id string, entry work.StatusEntry, now time.Time) (work.Work, error) {
	oid, ok := objectID(id)
	if !ok {
		return work.Work{}, work.ErrNotFound
	}
	sd := newStatusDoc(entry)
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// replace
		d, found, err := repo.findOneAndUpdate(ctx,
			bson.M{"_id": oid, "status.userId": entry.UserID},
			bson.M{"$set": bson.M{"status.$": sd, "updatedAt": now}},
			after,
		)
		if err != nil || found {
			return d, err
		}

		// append
		d, found, err = repo.findOneAndUpdate(ctx,
			bson.M{"_id": oid, "status.userId": bson.M{"$ne": entry.UserID}},
			bson.M{"$push": bson.M{"status": sd}, "$set": bson.M{"updatedAt": now}},
			after,
		)
		if err != nil || found {
			return d, err
		}

		// neither matched: the work is gone, or the entry was appended between both steps
		n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
		if err != nil {
			return work.Work{}, core.NewStorageError("count works", err)
		}
		if n == 0 {
			return work.Work{}, work.ErrNotFound
		}
	}
	return work.Work{}, core.NewStorageError("upsert work status", mongo.ErrNoDocuments)
}

func (repo *workRepository) findOneAndUpdate(ctx context.Context, filter, update interface{}, opts *options.FindOneAndUpdateOptions) (work.Work, bool, error) {
	var d workDoc
	err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return work.Work{}, false, nil
	}
	if err != nil {
		return work.Work{}, false, core.NewStorageError("update works", err)
	}
	return d.work(), true, nil
}
