package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/csbssync/portal/apps/api/echo"
	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/material"
	"github.com/csbssync/portal/core/notice"
	"github.com/csbssync/portal/core/study"
	"github.com/csbssync/portal/core/user"
	"github.com/csbssync/portal/core/work"
	emailsvc "github.com/csbssync/portal/services/email"
	filesvc "github.com/csbssync/portal/services/files"
	logsvc "github.com/csbssync/portal/services/logger"
	"github.com/csbssync/portal/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	repos, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(context.Background()); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	dbLogger.Info(fmt.Sprintf("%s database opened", conf.Database.Engine))

	// set up files storage
	files, filesDir, err := setUpFileStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	switch {
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	case conf.SendgridApiKey != "":
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	default:
		logger.Warn("SendGrid API key is missing: notices are disabled")
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	work.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)

	usrSvc := user.NewService(repos.Users, validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err := core.ParseEmailTemplates(false); err != nil {
		logger.Fatal(err.Error(), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("engine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			WorkSvc:         work.NewService(repos.Works, files, validate),
			TopicSvc:        study.NewService(repos.Topics, validate),
			MaterialSvc:     material.NewService(repos.Materials, files, validate),
			AnnouncementSvc: announcement.NewService(repos.Announcements, files, validate),
			NoticeSvc:       notice.NewService(usrSvc, mailSvc, validate),
			Validate:        validate,
			Translator:      translator,
			FilesDir:        filesDir,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpFileStorage returns the configured storage, and the directory to serve when it is local.
func setUpFileStorage(conf *core.Config) (core.FileStorage, string, error) {
	switch conf.Storage.Backend {
	case core.StorageLocal:
		local, err := filesvc.NewLocalStorage(conf.Storage.Dir, conf.Storage.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	case core.StorageB2:
		ctx, cancel := context.WithTimeout(context.Background(), conf.Database.ConnectTimeout)
		defer cancel()
		b2, err := filesvc.NewB2Storage(ctx, conf.Storage.B2AccountID, conf.Storage.B2AppKey, conf.Storage.B2Bucket)
		if err != nil {
			return nil, "", err
		}
		return b2, "", nil
	default:
		return nil, "", errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}
