package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func registerHelloAPI(g *echo.Group) {
	g.GET("/hello", hello)
	g.POST("/hello", helloEcho)
}

func hello(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Hello from the CSBS backend",
		"time":    time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func helloEcho(ctx echo.Context) error {
	var body interface{}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"received": body, "status": "Success"})
}
