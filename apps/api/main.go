package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/jukulab/shiken/apps/api/echo"
	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/student"
	"github.com/jukulab/shiken/core/user"
	emailsvc "github.com/jukulab/shiken/services/email"
	logsvc "github.com/jukulab/shiken/services/logger"
	"github.com/jukulab/shiken/storage/database"
	"github.com/jukulab/shiken/storage/database/sqlxrepos"
)

func main() {
	conf := core.LoadConfig(".")

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	} else {
		zl, err := logsvc.NewZapLogger(conf)
		errAndDie(err)
		defer func() { _ = zl.Sync() }()
		logger = zl
	}

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator, conf.WorkDir)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, logger, conf)
	schSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	stdSvc := student.NewService(sqlxrepos.NewStudentRepository(db))

	// start API server
	shutdownCh := make(chan struct{}, 1)
	app := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Address(),
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		SchoolSvc:  schSvc,
		StudentSvc: stdSvc,
		Validate:   validate,
		Translator: translator,
		SignalShutdown: func() {
			select {
			case shutdownCh <- struct{}{}:
			default:
			}
		},
	})

	go app.Start()
	logger.Info("server started", "address", conf.Server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case <-shutdownCh:
		logger.Error("integrity issue; shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatalf("%+v", err)
	}
}
