package work

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("work not found")
	errInvalidBase64 = errors.New("invalid base64 file content")
)

type (
	Repository interface {
		CreateWork(ctx context.Context, w Work) (Work, error)
		// QueryAllWorks returns every Work, newest first.
		QueryAllWorks(ctx context.Context) ([]Work, error)
		GetWorkByID(ctx context.Context, id string) (Work, error)
		DeleteWorkByID(ctx context.Context, id string) error
		// UpsertWorkStatus applies Work.SetStatus atomically with regard to other users' entries.
		UpsertWorkStatus(ctx context.Context, id string, entry StatusEntry, now time.Time) (Work, error)
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

func (svc *Service) Create(ctx context.Context, nw NewWork) (Work, error) {
	if err := nw.Validate(svc.validate); err != nil {
		return Work{}, err
	}
	deadline, err := core.ParseDate(nw.Deadline)
	if err != nil {
		return Work{}, core.NewValidationError(err, core.FieldError{Field: "deadline", Error: err.Error()})
	}

	fileURL := nw.FileURL
	if nw.FileBase64 != "" && fileURL == "" {
		f, err := decodeBase64File(nw.FileBase64)
		if err != nil {
			return Work{}, core.NewValidationError(err, core.FieldError{Field: "fileBase64", Error: err.Error()})
		}
		if fileURL, err = svc.UploadFile(ctx, f); err != nil {
			return Work{}, err
		}
	}

	now := core.NowFunc()
	w := Work{
		Subject:     nw.Subject,
		Description: nw.Description,
		Deadline:    deadline,
		FileURL:     fileURL,
		AddedBy:     nw.AddedBy,
		Status:      []StatusEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateWork(ctx, w)
}

// UploadFile stores a work attachment and returns its URL.
func (svc *Service) UploadFile(ctx context.Context, f core.File) (string, error) {
	url, err := svc.files.Upload(ctx, core.FolderWorks, f)
	if err != nil {
		return "", errors.Wrap(err, "uploading work file")
	}
	return url, nil
}

func (svc *Service) ListAll(ctx context.Context) ([]Work, error) {
	works, err := svc.repo.QueryAllWorks(ctx)
	if err != nil {
		return nil, err
	}
	if works == nil {
		works = []Work{}
	}
	return works, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Work, error) {
	if id = core.CleanString(id); id == "" {
		return Work{}, ErrNotFound
	}
	return svc.repo.GetWorkByID(ctx, id)
}

func (svc *Service) DeleteByID(ctx context.Context, id string) error {
	if id = core.CleanString(id); id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteWorkByID(ctx, id)
}

func (svc *Service) UpsertStatus(ctx context.Context, id string, us UpdateStatus) (Work, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Work{}, err
	}
	if id = core.CleanString(id); id == "" {
		return Work{}, ErrNotFound
	}
	return svc.repo.UpsertWorkStatus(ctx, id, us.entry(), core.NowFunc())
}

// decodeBase64File accepts either a data URI ("data:<mime>;base64,<data>") or raw base64.
func decodeBase64File(s string) (core.File, error) {
	contentType := "application/octet-stream"
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return core.File{}, errInvalidBase64
		}
		meta := strings.TrimSuffix(payload[len("data:"):idx], ";base64")
		if meta != "" {
			contentType = meta
		}
		payload = payload[idx+1:]
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return core.File{}, errInvalidBase64
	}

	name := "file"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		name += exts[0]
	}
	return core.File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}, nil
}
