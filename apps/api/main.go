package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/foe05/HGMH-App/apps/api/echo"
	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/export"
	"github.com/foe05/HGMH-App/core/forms"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/ocr"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
	emailsvc "github.com/foe05/HGMH-App/services/email"
	logsvc "github.com/foe05/HGMH-App/services/logger"
	ocrsvc "github.com/foe05/HGMH-App/services/ocr"
	pushsvc "github.com/foe05/HGMH-App/services/push"
	"github.com/foe05/HGMH-App/storage/database"
	sqlxrepos "github.com/foe05/HGMH-App/storage/database/sqlx"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf
	ctx := context.Background()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		return errors.Wrap(err, "setting up zap")
	}
	logger := logsvc.NewRollbarLogger(zl.Named("API"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("DB"), conf)

	// set up DB
	db, err := setUpDB(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	validate, translator := validator.New(), core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)
	user.LoadCommonPasswords(logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var pushSvc core.PushService
	switch conf.Push.Engine {
	case "fcm":
		if pushSvc, err = pushsvc.NewFCMService(ctx, conf); err != nil {
			return errors.Wrap(err, "setting up FCM")
		}
	default:
		pushSvc = pushsvc.NewConsoleService(logger)
	}

	var engine ocr.Engine
	switch conf.OCR.Engine {
	case "gemini":
		if engine, err = ocrsvc.NewGeminiEngine(ctx, conf); err != nil {
			return errors.Wrap(err, "setting up Gemini")
		}
	default:
		engine = ocrsvc.NewMockEngine(0)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	stammSvc := stammdaten.NewService(sqlxrepos.NewStammdatenRepository(db))
	erfSvc := erfassung.NewService(sqlxrepos.NewErfassungRepository(db), stammSvc, validate)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), usrSvc, pushSvc, validate, logger)
	gastSvc := gastmeldung.NewService(sqlxrepos.NewGastmeldungRepository(db), usrSvc, notifSvc, mailSvc, validate, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:         conf.Server.Address,
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			SignalShutdown:  func() { shutdown <- syscall.SIGTERM },
			UserSvc:         usrSvc,
			StammdatenSvc:   stammSvc,
			ErfassungSvc:    erfSvc,
			GastmeldungSvc:  gastSvc,
			NotificationSvc: notifSvc,
			OCRSvc:          ocr.NewService(engine, stammSvc, conf.Server.UploadMaxBytes),
			ExportSvc:       export.NewService(erfSvc, mailSvc, validate),
			FormsSvc:        forms.NewService(erfSvc, gastSvc),
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}
