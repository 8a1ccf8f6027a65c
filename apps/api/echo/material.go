package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/material"
)

var errMissingID = echo.NewHTTPError(http.StatusBadRequest, "Missing ID")

type materialApi struct {
	svc *material.Service
}

func registerMaterialAPI(g *echo.Group, svc *material.Service) {
	api := materialApi{svc: svc}

	g.GET("/materials", api.list)
	g.POST("/materials", api.create)
	g.POST("/materials/delete", api.destroy)
	g.POST("/upload", api.upload)
}

func (api *materialApi) list(ctx echo.Context) error {
	materials, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing materials")
	}
	return success(ctx, http.StatusOK, echo.Map{"data": materials})
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	mat, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Material added successfully", "data": mat})
}

func (api *materialApi) upload(ctx echo.Context) error {
	var data material.UploadMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UploadMaterial")
	}
	f, closer, err := formFile(ctx, "file")
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	mat, err := api.svc.Upload(ctx.Request().Context(), data, f)
	if err != nil {
		return errors.Wrap(err, "uploading material")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "File uploaded successfully!", "url": mat.Link, "data": mat})
}

func (api *materialApi) destroy(ctx echo.Context) error {
	var data idRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to idRequest")
	}
	if strings.TrimSpace(data.ID) == "" {
		return errMissingID
	}
	if err := api.svc.DeleteByID(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Material deleted"})
}
