package filesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

// LocalStorage stores files under a directory served by the API at baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &LocalStorage{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Upload(ctx context.Context, folder string, f core.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(folder, f.Name)
	fp := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating folder")
	}

	out, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(out, f.Content); err != nil {
		_ = out.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing file")
	}
	if err = out.Close(); err != nil {
		return "", errors.Wrap(err, "closing file")
	}
	return s.baseURL + "/" + key, nil
}
