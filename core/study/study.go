// Package study tracks the topics covered by each subject's staff.
package study

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/csbssync/portal/core"
)

var ErrNotFound = core.NewNotFoundError("Topic not found")

type Topic struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Staff     string    `json:"staff"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewTopic struct {
	Subject string `json:"subject" validate:"notblank"`
	Staff   string `json:"staff" validate:"notblank"`
	Topic   string `json:"topic" validate:"notblank"`
}

func (nt *NewTopic) Validate(validate *validator.Validate) error {
	nt.Subject = core.CleanString(nt.Subject)
	nt.Staff = core.CleanString(nt.Staff)
	nt.Topic = core.CleanString(nt.Topic)
	return validate.Struct(nt)
}

type (
	Repository interface {
		CreateTopic(ctx context.Context, t Topic) (Topic, error)
		// QueryAllTopics returns every Topic, newest first.
		QueryAllTopics(ctx context.Context) ([]Topic, error)
		DeleteTopicByID(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nt NewTopic) (Topic, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Topic{}, err
	}
	now := core.NowFunc()
	return svc.repo.CreateTopic(ctx, Topic{
		Subject:   nt.Subject,
		Staff:     nt.Staff,
		Topic:     nt.Topic,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) ListAll(ctx context.Context) ([]Topic, error) {
	topics, err := svc.repo.QueryAllTopics(ctx)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []Topic{}
	}
	return topics, nil
}

func (svc *Service) DeleteByID(ctx context.Context, id string) error {
	if id = core.CleanString(id); id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteTopicByID(ctx, id)
}
