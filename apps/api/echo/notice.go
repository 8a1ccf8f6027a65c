package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/notice"
)

var errMailNotConfigured = echo.NewHTTPError(http.StatusInternalServerError, "Email service is not configured")

type noticeApi struct {
	svc *notice.Service
}

func registerNoticeAPI(g *echo.Group, svc *notice.Service) {
	api := noticeApi{svc: svc}
	g.POST("/send", api.send)
}

func (api *noticeApi) send(ctx echo.Context) error {
	var data notice.Notice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Notice")
	}

	results, err := api.svc.Broadcast(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == notice.ErrMailNotConfigured {
			return errMailNotConfigured
		}
		return errors.Wrap(err, "broadcasting notice")
	}
	if len(results) == 0 {
		return success(ctx, http.StatusOK, echo.Map{"message": "No users with email1 found, no emails sent", "results": results})
	}
	return success(ctx, http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Attempted to send emails to %d users", len(results)),
		"results": results,
	})
}
