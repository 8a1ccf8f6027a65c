package boltdb

import (
	"context"

	"github.com/csbssync/portal/core/announcement"
)

type announcementRepository struct {
	anns collection[announcement.Announcement]
}

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{
		anns: collection[announcement.Announcement]{db: db, bucket: announcementsBucket, notFound: announcement.ErrNotFound},
	}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = newID()
	if err := repo.anns.insert(ctx, a.ID, a); err != nil {
		return announcement.Announcement{}, err
	}
	return a, nil
}

func (repo *announcementRepository) QueryAllAnnouncements(ctx context.Context) ([]announcement.Announcement, error) {
	return repo.anns.all(ctx, func(a, b announcement.Announcement) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

func (repo *announcementRepository) DeleteAnnouncementByID(ctx context.Context, id string) error {
	return repo.anns.remove(ctx, id)
}
