package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
	logsvc "github.com/csbssync/portal/services/logger"
	"github.com/csbssync/portal/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:   conf,
		repos:  repos,
		usrSvc: user.NewService(repos.Users, validate),
	}
	err = cli.run(os.Args)
	if cErr := repos.Close(context.Background()); cErr != nil {
		logger.Error(fmt.Sprintf("closing database: %v", cErr), cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
