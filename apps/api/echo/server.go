// Package echoapi is the HTTP transport of the portal.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/material"
	"github.com/csbssync/portal/core/notice"
	"github.com/csbssync/portal/core/study"
	"github.com/csbssync/portal/core/user"
	"github.com/csbssync/portal/core/work"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         *user.Service
		WorkSvc         *work.Service
		TopicSvc        *study.Service
		MaterialSvc     *material.Service
		AnnouncementSvc *announcement.Service
		NoticeSvc       *notice.Service
		Validate        *validator.Validate
		Translator      ut.Translator

		// FilesDir, when set, is served under Conf.Storage.BaseURL.
		FilesDir       string
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	if s.deps.FilesDir != "" {
		s.app.Static(conf.Storage.BaseURL, s.deps.FilesDir)
	}

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))

	registerHelloAPI(g)
	registerUserAPI(g, jwt, conf, s.deps.UserSvc)
	registerWorkAPI(g, s.deps.WorkSvc)
	registerStudyAPI(g, s.deps.TopicSvc)
	registerMaterialAPI(g, s.deps.MaterialSvc)
	registerAnnouncementAPI(g, s.deps.AnnouncementSvc)
	registerNoticeAPI(g, s.deps.NoticeSvc)
}

// Start listens on Conf.Server.Address; listen errors are reported on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks main to shut the server down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to CSBS SYNC API!")
}

// success writes {"success": true, ...payload}.
func success(ctx echo.Context, code int, payload echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return ctx.JSON(code, body)
}
