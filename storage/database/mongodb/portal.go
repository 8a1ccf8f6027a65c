package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/material"
	"github.com/csbssync/portal/core/study"
)

// Study topics

type topicDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Subject   string             `bson:"subject"`
	Staff     string             `bson:"staff"`
	Topic     string             `bson:"topic"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d topicDoc) topic() study.Topic {
	return study.Topic{
		ID:        d.ID.Hex(),
		Subject:   d.Subject,
		Staff:     d.Staff,
		Topic:     d.Topic,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type topicRepository struct {
	coll *mongo.Collection
}

func NewTopicRepository(db *DB) study.Repository {
	return &topicRepository{coll: db.collection(topicsCollection)}
}

func (repo *topicRepository) CreateTopic(ctx context.Context, t study.Topic) (study.Topic, error) {
	d := topicDoc{Subject: t.Subject, Staff: t.Staff, Topic: t.Topic, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
	oid, err := insertOne(ctx, repo.coll, d)
	if err != nil {
		return study.Topic{}, core.NewStorageError("insert studies", err)
	}
	d.ID = oid
	return d.topic(), nil
}

func (repo *topicRepository) QueryAllTopics(ctx context.Context) ([]study.Topic, error) {
	docs, err := findAll[topicDoc](ctx, repo.coll, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	topics := make([]study.Topic, 0, len(docs))
	for _, d := range docs {
		topics = append(topics, d.topic())
	}
	return topics, nil
}

func (repo *topicRepository) DeleteTopicByID(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.coll, id, study.ErrNotFound)
}

// Materials

type materialDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	MatName    string             `bson:"matname"`
	Subject    string             `bson:"subject"`
	Name       string             `bson:"name"`
	Link       string             `bson:"link"`
	UploadDate time.Time          `bson:"uploadDate"`
	Format     string             `bson:"format"`
}

func (d materialDoc) material() material.Material {
	return material.Material{
		ID:         d.ID.Hex(),
		MatName:    d.MatName,
		Subject:    d.Subject,
		Name:       d.Name,
		Link:       d.Link,
		UploadDate: d.UploadDate,
		Format:     d.Format,
	}
}

type materialRepository struct {
	coll *mongo.Collection
}

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{coll: db.collection(materialsCollection)}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	d := materialDoc{
		MatName:    m.MatName,
		Subject:    m.Subject,
		Name:       m.Name,
		Link:       m.Link,
		UploadDate: m.UploadDate,
		Format:     m.Format,
	}
	oid, err := insertOne(ctx, repo.coll, d)
	if err != nil {
		return material.Material{}, core.NewStorageError("insert materials", err)
	}
	d.ID = oid
	return d.material(), nil
}

func (repo *materialRepository) QueryAllMaterials(ctx context.Context) ([]material.Material, error) {
	docs, err := findAll[materialDoc](ctx, repo.coll, bson.M{}, bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: -1}})
	if err != nil {
		return nil, err
	}
	materials := make([]material.Material, 0, len(docs))
	for _, d := range docs {
		materials = append(materials, d.material())
	}
	return materials, nil
}

func (repo *materialRepository) DeleteMaterialByID(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.coll, id, material.ErrNotFound)
}

// Announcements

type announcementDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Topic     string             `bson:"topic"`
	Category  string             `bson:"category"`
	Details   string             `bson:"details"`
	ImageURL  string             `bson:"imageUrl"`
	AddedBy   string             `bson:"addedBy"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d announcementDoc) announcement() announcement.Announcement {
	return announcement.Announcement{
		ID:        d.ID.Hex(),
		Topic:     d.Topic,
		Category:  d.Category,
		Details:   d.Details,
		ImageURL:  d.ImageURL,
		AddedBy:   d.AddedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type announcementRepository struct {
	coll *mongo.Collection
}

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{coll: db.collection(announcementsCollection)}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	d := announcementDoc{
		Topic:     a.Topic,
		Category:  a.Category,
		Details:   a.Details,
		ImageURL:  a.ImageURL,
		AddedBy:   a.AddedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	oid, err := insertOne(ctx, repo.coll, d)
	if err != nil {
		return announcement.Announcement{}, core.NewStorageError("insert announcements", err)
	}
	d.ID = oid
	return d.announcement(), nil
}

func (repo *announcementRepository) QueryAllAnnouncements(ctx context.Context) ([]announcement.Announcement, error) {
	docs, err := findAll[announcementDoc](ctx, repo.coll, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	anns := make([]announcement.Announcement, 0, len(docs))
	for _, d := range docs {
		anns = append(anns, d.announcement())
	}
	return anns, nil
}

func (repo *announcementRepository) DeleteAnnouncementByID(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.coll, id, announcement.ErrNotFound)
}
