package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

// formFile opens the multipart file field name. A missing field gives a nil file.
// The returned closer must be closed once the file content is consumed.
func formFile(ctx echo.Context, name string) (*core.File, io.Closer, error) {
	fh, err := ctx.FormFile(name)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening form file")
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &core.File{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Content:     src,
	}, src, nil
}
