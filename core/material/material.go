// Package material manages the study materials shared between students.
package material

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

var (
	ErrNotFound     = core.NewNotFoundError("Material not found")
	errMissingField = errors.New("Missing required fields!")
)

type Material struct {
	ID         string    `json:"id"`
	MatName    string    `json:"matname"`
	Subject    string    `json:"subject"`
	Name       string    `json:"name"` // uploader
	Link       string    `json:"link"`
	UploadDate time.Time `json:"uploadDate"`
	Format     string    `json:"format"`
}

// NewMaterial adds a material already hosted somewhere.
type NewMaterial struct {
	MatName string `json:"matname" validate:"notblank"`
	Subject string `json:"subject" validate:"notblank"`
	Name    string `json:"name"`
	Link    string `json:"link" validate:"required,url"`
	Format  string `json:"format"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.MatName = core.CleanString(nm.MatName)
	nm.Subject = core.CleanString(nm.Subject)
	nm.Name = core.CleanString(nm.Name)
	nm.Link = core.CleanString(nm.Link)
	nm.Format = core.CleanString(nm.Format, true /* lower */)
	return validate.Struct(nm)
}

// UploadMaterial is the form sent along an uploaded file.
type UploadMaterial struct {
	Username     string `form:"username"`
	MaterialName string `form:"materialName"`
	Subject      string `form:"subject"`
	UploadDate   string `form:"uploadDate"`
}

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		// QueryAllMaterials returns every Material, most recently uploaded first.
		QueryAllMaterials(ctx context.Context) ([]Material, error)
		DeleteMaterialByID(ctx context.Context, id string) error
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

func (svc *Service) Create(ctx context.Context, nm NewMaterial) (Material, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Material{}, err
	}
	return svc.repo.CreateMaterial(ctx, Material{
		MatName:    nm.MatName,
		Subject:    nm.Subject,
		Name:       nm.Name,
		Link:       nm.Link,
		Format:     nm.Format,
		UploadDate: core.NowFunc(),
	})
}

// Upload stores f under the materials folder and records it.
func (svc *Service) Upload(ctx context.Context, um UploadMaterial, f *core.File) (Material, error) {
	um.MaterialName = core.CleanString(um.MaterialName)
	um.Subject = core.CleanString(um.Subject)
	if f == nil || um.MaterialName == "" || um.Subject == "" {
		return Material{}, core.NewValidationError(errMissingField)
	}

	uploadDate := core.NowFunc()
	if s := core.CleanString(um.UploadDate); s != "" {
		t, err := parseUploadDate(s)
		if err != nil {
			return Material{}, core.NewValidationError(err, core.FieldError{Field: "uploadDate", Error: "invalid date"})
		}
		uploadDate = t
	}

	link, err := svc.files.Upload(ctx, core.FolderMaterials, *f)
	if err != nil {
		return Material{}, errors.Wrap(err, "uploading material")
	}
	return svc.repo.CreateMaterial(ctx, Material{
		MatName:    um.MaterialName,
		Subject:    um.Subject,
		Name:       core.CleanString(um.Username),
		Link:       link,
		Format:     f.Ext(),
		UploadDate: uploadDate,
	})
}

func (svc *Service) ListAll(ctx context.Context) ([]Material, error) {
	materials, err := svc.repo.QueryAllMaterials(ctx)
	if err != nil {
		return nil, err
	}
	if materials == nil {
		materials = []Material{}
	}
	return materials, nil
}

func (svc *Service) DeleteByID(ctx context.Context, id string) error {
	if id = core.CleanString(id); id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteMaterialByID(ctx, id)
}

func parseUploadDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}
