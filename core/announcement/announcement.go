// Package announcement publishes news to every student.
package announcement

import (
	"context"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

// Categories
const (
	CategoryGeneral      = "General"
	CategoryEvents       = "Events"
	CategoryExams        = "Exams"
	CategoryUpdates      = "Updates"
	CategoryAchievements = "Achievements"
)

var (
	Categories = []string{CategoryGeneral, CategoryEvents, CategoryExams, CategoryUpdates, CategoryAchievements}

	ErrNotFound = core.NewNotFoundError("Announcement not found")

	categoryTag  = "category"
	categoryText = "category must be one of: " + strings.Join(Categories, ", ")

	defaultAddedBy = "Admin"
)

type Announcement struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Category  string    `json:"category"`
	Details   string    `json:"details"`
	ImageURL  string    `json:"imageUrl"`
	AddedBy   string    `json:"addedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewAnnouncement struct {
	Topic    string `form:"topic" validate:"notblank"`
	Category string `form:"category" validate:"category"`
	Details  string `form:"details"`
	AddedBy  string `form:"addedBy"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Topic = core.CleanString(na.Topic)
	na.Category = core.CleanString(na.Category)
	na.Details = core.CleanString(na.Details)
	na.AddedBy = core.CleanString(na.AddedBy)
	if na.Category == "" {
		na.Category = CategoryGeneral
	}
	if na.AddedBy == "" {
		na.AddedBy = defaultAddedBy
	}
	return validate.Struct(na)
}

// InitValidators registers the validators of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		cat := fl.Field().String()
		for _, c := range Categories {
			if c == cat {
				return true
			}
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		// QueryAllAnnouncements returns every Announcement, newest first.
		QueryAllAnnouncements(ctx context.Context) ([]Announcement, error)
		DeleteAnnouncementByID(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		files    core.FileStorage
		validate *validator.Validate
	}
)

func NewService(repo Repository, files core.FileStorage, validate *validator.Validate) *Service {
	return &Service{repo: repo, files: files, validate: validate}
}

// Create records an announcement; image is optional.
func (svc *Service) Create(ctx context.Context, na NewAnnouncement, image *core.File) (Announcement, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Announcement{}, err
	}

	var imageURL string
	if image != nil {
		url, err := svc.files.Upload(ctx, core.FolderAnnouncements, *image)
		if err != nil {
			return Announcement{}, errors.Wrap(err, "uploading announcement image")
		}
		imageURL = url
	}

	now := core.NowFunc()
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		Topic:     na.Topic,
		Category:  na.Category,
		Details:   na.Details,
		ImageURL:  imageURL,
		AddedBy:   na.AddedBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) ListAll(ctx context.Context) ([]Announcement, error) {
	anns, err := svc.repo.QueryAllAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	if anns == nil {
		anns = []Announcement{}
	}
	return anns, nil
}

func (svc *Service) DeleteByID(ctx context.Context, id string) error {
	if id = core.CleanString(id); id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteAnnouncementByID(ctx, id)
}
