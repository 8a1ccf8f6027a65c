package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/announcement"
)

type announcementApi struct {
	svc *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, svc *announcement.Service) {
	api := announcementApi{svc: svc}

	g.GET("/announcements", api.list)
	g.POST("/announcements", api.create)
	g.DELETE("/announcements", api.destroy)
}

func (api *announcementApi) list(ctx echo.Context) error {
	anns, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return success(ctx, http.StatusOK, echo.Map{"announcements": anns})
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	image, closer, err := formFile(ctx, "image")
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ann, err := api.svc.Create(ctx.Request().Context(), data, image)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return success(ctx, http.StatusCreated, echo.Map{"announcement": ann})
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	id := strings.TrimSpace(ctx.QueryParam("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing announcement ID")
	}
	if err := api.svc.DeleteByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return success(ctx, http.StatusOK, nil)
}
