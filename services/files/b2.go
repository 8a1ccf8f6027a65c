package filesvc

import (
	"context"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

// B2Storage stores files in a public Backblaze B2 bucket.
type B2Storage struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ core.FileStorage = (*B2Storage)(nil)

func NewB2Storage(ctx context.Context, accountID, appKey, bucketName string) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting bucket")
	}
	return &B2Storage{client: client, bucket: bucket}, nil
}

func (s *B2Storage) Upload(ctx context.Context, folder string, f core.File) (string, error) {
	obj := s.bucket.Object(objectKey(folder, f.Name))
	w := obj.NewWriter(ctx)
	if f.ContentType != "" {
		w = w.WithAttrs(&b2.Attrs{ContentType: f.ContentType})
	}

	if _, err := io.Copy(w, f.Content); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing writer")
	}
	return obj.URL(), nil
}
