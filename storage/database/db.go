// Package database opens the configured storage engine and exposes its repositories.
package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/material"
	"github.com/csbssync/portal/core/study"
	"github.com/csbssync/portal/core/user"
	"github.com/csbssync/portal/core/work"
	"github.com/csbssync/portal/storage/database/boltdb"
	"github.com/csbssync/portal/storage/database/mongodb"
)

// Repositories bundles the repositories of one storage engine.
type Repositories struct {
	Users         user.Repository
	Works         work.Repository
	Topics        study.Repository
	Materials     material.Repository
	Announcements announcement.Repository

	close func(ctx context.Context) error
	mongo *mongodb.DB
}

// Close releases the underlying database.
func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// EnsureIndexes creates the indexes the MongoDB engine relies on. It is a no-op for bolt.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	if r.mongo == nil {
		return nil
	}
	return r.mongo.EnsureIndexes(ctx)
}

// Open opens the engine selected by conf.Database.Engine.
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.Database.Engine {
	case core.EngineMongoDB:
		db, err := mongodb.Open(ctx, mongodb.Options{
			URI:            conf.Database.URI,
			Name:           conf.Database.Name,
			MaxPoolSize:    conf.Database.MaxPoolSize,
			ConnectTimeout: conf.Database.ConnectTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "opening mongodb")
		}
		return &Repositories{
			Users:         mongodb.NewUserRepository(db),
			Works:         mongodb.NewWorkRepository(db),
			Topics:        mongodb.NewTopicRepository(db),
			Materials:     mongodb.NewMaterialRepository(db),
			Announcements: mongodb.NewAnnouncementRepository(db),
			close:         db.Close,
			mongo:         db,
		}, nil

	case core.EngineBolt:
		return OpenBolt(conf.Database.BoltPath)

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// OpenBolt opens (creating it if needed) the bolt file at path.
func OpenBolt(path string) (*Repositories, error) {
	db, err := boltdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt")
	}
	return &Repositories{
		Users:         boltdb.NewUserRepository(db),
		Works:         boltdb.NewWorkRepository(db),
		Topics:        boltdb.NewTopicRepository(db),
		Materials:     boltdb.NewMaterialRepository(db),
		Announcements: boltdb.NewAnnouncementRepository(db),
		close:         func(context.Context) error { return db.Close() },
	}, nil
}
