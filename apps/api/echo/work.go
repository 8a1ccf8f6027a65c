package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/work"
)

var errNoFile = echo.NewHTTPError(http.StatusBadRequest, "No file")

type workApi struct {
	svc *work.Service
}

// idRequest is the `{"id": "..."}` body of the delete endpoints.
type idRequest struct {
	ID string `json:"id" query:"id"`
}

func registerWorkAPI(g *echo.Group, svc *work.Service) {
	api := workApi{svc: svc}

	g.GET("/work", api.list)
	g.GET("/works", api.list)
	g.POST("/works", api.create)
	g.POST("/work/add", api.create)
	g.DELETE("/work", api.destroyFromBody)
	g.POST("/work/upload", api.upload)
	g.POST("/work/status/:id", api.upsertStatus)
	g.GET("/work/:id", api.retrieve)
	g.DELETE("/work/:id", api.destroy)
}

func (api *workApi) list(ctx echo.Context) error {
	works, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing works")
	}
	return success(ctx, http.StatusOK, echo.Map{"works": works})
}

func (api *workApi) create(ctx echo.Context) error {
	var data work.NewWork
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWork")
	}
	w, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating work")
	}
	return success(ctx, http.StatusCreated, echo.Map{"message": "Work added successfully", "work": w})
}

func (api *workApi) retrieve(ctx echo.Context) error {
	w, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding work by ID")
	}
	return success(ctx, http.StatusOK, echo.Map{"work": w})
}

func (api *workApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting work")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Deleted successfully"})
}

func (api *workApi) destroyFromBody(ctx echo.Context) error {
	var data idRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to idRequest")
	}
	if err := api.svc.DeleteByID(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting work")
	}
	return success(ctx, http.StatusOK, nil)
}

func (api *workApi) upsertStatus(ctx echo.Context) error {
	var data work.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	w, err := api.svc.UpsertStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating work status")
	}
	return success(ctx, http.StatusOK, echo.Map{"work": w})
}

func (api *workApi) upload(ctx echo.Context) error {
	f, closer, err := formFile(ctx, "file")
	if err != nil {
		return err
	}
	if f == nil {
		return errNoFile
	}
	defer func() { _ = closer.Close() }()

	url, err := api.svc.UploadFile(ctx.Request().Context(), *f)
	if err != nil {
		return errors.Wrap(err, "uploading work file")
	}
	return success(ctx, http.StatusOK, echo.Map{"url": url})
}
