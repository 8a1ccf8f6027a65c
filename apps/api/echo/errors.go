package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
)

// failure is the body of every error response.
type failure struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"` // debug only
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := failure{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body.Message = fmt.Sprint(origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			body.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				body.Errors[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			body.Message = origErr[0].Field() + ": " + body.Errors[origErr[0].Field()]
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				body.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Errors[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			body.Message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			body.Message = origErr.Error()
		default: // any other error is a server error, StorageError included
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body.Message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.UserID
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			body.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
