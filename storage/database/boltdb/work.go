package boltdb

import (
	"context"
	"time"

	"github.com/csbssync/portal/core/work"
)

type workRepository struct {
	works collection[work.Work]
}

var _ work.Repository = (*workRepository)(nil)

func NewWorkRepository(db *DB) work.Repository {
	return &workRepository{
		works: collection[work.Work]{db: db, bucket: worksBucket, notFound: work.ErrNotFound},
	}
}

func (repo *workRepository) CreateWork(ctx context.Context, w work.Work) (work.Work, error) {
	w.ID = newID()
	if w.Status == nil {
		w.Status = []work.StatusEntry{}
	}
	if err := repo.works.insert(ctx, w.ID, w); err != nil {
		return work.Work{}, err
	}
	return w, nil
}

func (repo *workRepository) QueryAllWorks(ctx context.Context) ([]work.Work, error) {
	return repo.works.all(ctx, func(a, b work.Work) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

func (repo *workRepository) GetWorkByID(ctx context.Context, id string) (work.Work, error) {
	w, _, err := repo.works.get(ctx, id)
	return w, err
}

func (repo *workRepository) DeleteWorkByID(ctx context.Context, id string) error {
	return repo.works.remove(ctx, id)
}

func (repo *workRepository) UpsertWorkStatus(ctx context.Context, id string, entry work.StatusEntry, now time.Time) (work.Work, error) {
	return repo.works.modify(ctx, id, func(w *work.Work) error {
		w.SetStatus(entry)
		w.UpdatedAt = now
		return nil
	})
}
