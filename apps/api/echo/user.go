package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
)

type userApi struct {
	conf *core.Config
	svc  *user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *user.Service) {
	api := userApi{conf: conf, svc: svc}

	g.POST("/register", api.register)
	g.POST("/login", api.login)
	g.POST("/change-password", api.changePassword)
	g.POST("/addemail", api.addEmail1)
	g.PATCH("/changeemail1", api.changeEmail1)

	// authed endpoints
	ag := g.Group("/users", jwt)
	ag.GET("/me", api.me)
	ag.POST("/token-refresh", api.refreshToken)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return success(ctx, http.StatusCreated, echo.Map{"message": "User registered successfully", "user": usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidPassword {
			return errInvalidPassword
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Login successful", "token": token, "user": usr})
}

func (api *userApi) changePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := api.svc.ChangePassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

func (api *userApi) addEmail1(ctx echo.Context) error {
	var data user.SetEmail1
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetEmail1")
	}
	usr, err := api.svc.AddEmail1(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding email1")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Email1 added successfully", "user": usr})
}

func (api *userApi) changeEmail1(ctx echo.Context) error {
	var data user.SetEmail1
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetEmail1")
	}
	usr, err := api.svc.ChangeEmail1(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "changing email1")
	}
	return success(ctx, http.StatusOK, echo.Map{"message": "Secondary email updated successfully", "user": usr})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return success(ctx, http.StatusOK, echo.Map{"user": usr})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return success(ctx, http.StatusOK, echo.Map{"token": token})
}
