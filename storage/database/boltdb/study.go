package boltdb

import (
	"context"

	"github.com/csbssync/portal/core/study"
)

type topicRepository struct {
	topics collection[study.Topic]
}

func NewTopicRepository(db *DB) study.Repository {
	return &topicRepository{
		topics: collection[study.Topic]{db: db, bucket: topicsBucket, notFound: study.ErrNotFound},
	}
}

func (repo *topicRepository) CreateTopic(ctx context.Context, t study.Topic) (study.Topic, error) {
	t.ID = newID()
	if err := repo.topics.insert(ctx, t.ID, t); err != nil {
		return study.Topic{}, err
	}
	return t, nil
}

func (repo *topicRepository) QueryAllTopics(ctx context.Context) ([]study.Topic, error) {
	return repo.topics.all(ctx, func(a, b study.Topic) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

func (repo *topicRepository) DeleteTopicByID(ctx context.Context, id string) error {
	return repo.topics.remove(ctx, id)
}
