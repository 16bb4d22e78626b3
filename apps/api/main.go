package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	echoapi "github.com/instacad/backoffice/apps/api/echo"
	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/course"
	"github.com/instacad/backoffice/core/ledger"
	"github.com/instacad/backoffice/core/student"
	"github.com/instacad/backoffice/core/user"
	emailsvc "github.com/instacad/backoffice/services/email"
	logsvc "github.com/instacad/backoffice/services/logger"
	"github.com/instacad/backoffice/storage/database"
	"github.com/instacad/backoffice/storage/database/sqlxrepos"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	stuRepo := sqlxrepos.NewStudentRepository(db)
	auditRepo := sqlxrepos.NewAuditRepository(db)
	ledgerWriter := ledger.NewWriter(sqlxrepos.NewLedgerRepository(db))

	crsSvc := course.NewService(crsRepo)
	stuSvc := student.NewService(db, stuRepo, usrRepo, crsRepo, ledgerWriter, auditRepo, mailSvc, logger, conf, validate)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			StudentSvc: stuSvc,
			CourseSvc:  crsSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*database.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB.DB); err != nil {
		return nil, err
	}
	return db, nil
}
