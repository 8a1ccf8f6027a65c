package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/study"
)

type studyApi struct {
	svc *study.Service
}

func registerStudyAPI(g *echo.Group, svc *study.Service) {
	api := studyApi{svc: svc}

	g.GET("/study", api.list)
	g.POST("/study", api.create)
	g.DELETE("/study/:id", api.destroy)
}

func (api *studyApi) list(ctx echo.Context) error {
	topics, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing topics")
	}
	return success(ctx, http.StatusOK, echo.Map{"topics": topics})
}

func (api *studyApi) create(ctx echo.Context) error {
	var data study.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}
	topic, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return success(ctx, http.StatusCreated, echo.Map{"topic": topic})
}

func (api *studyApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Deleted successfully"})
}
