package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	echoapi "github.com/studai/backend/apps/api/echo"
	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
	_ "github.com/studai/backend/fs"
	emailsvc "github.com/studai/backend/services/email"
	logsvc "github.com/studai/backend/services/logger"
	"github.com/studai/backend/storage/database"
	"github.com/studai/backend/storage/sessionstore"
	"github.com/studai/backend/storage/uploadstore"
)

func main() {
	stdLogger := log.New(os.Stdout, core.Conf.AppName+" ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug || core.Conf.TestMode {
		logger = core.NewStdLogger(stdLogger)
	} else {
		logger = logsvc.NewRollbarLogger(stdLogger, core.Conf)
	}

	// set up storage
	var store session.Store
	var uploads session.UploadRegistry
	switch core.Conf.SessionStore {
	case "postgres":
		db, err := database.Open(core.Conf)
		errAndDie(logger, err)
		defer db.Close()
		store = sessionstore.NewPGStore(db)
		uploads = uploadstore.NewPGRegistry(db)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     core.Conf.Redis.Addr,
			Password: core.Conf.Redis.Password,
			DB:       core.Conf.Redis.DB,
		})
		defer rdb.Close()
		store = sessionstore.NewRedisStore(rdb)
		uploads = uploadstore.NewInmemRegistry()
	default:
		store = sessionstore.NewInmemStore()
		uploads = uploadstore.NewInmemRegistry()
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	auth := session.NewStubAuthenticator(mailSvc, core.Conf.DefaultTheme, 0)

	// resolve the initial session before serving
	gate := session.NewGate(store, uploads, logger, core.Conf.Server.WeeklyTestDuration)
	defer gate.Close()
	state := gate.Start(context.Background())
	logger.Info("session gate resolved: " + string(state.Screen))

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address: core.Conf.Server.Address(),
			Gate:    gate,
			Auth:    auth,
			Uploads: uploads,
			Logger:  logger,
		},
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			logger.Error("stopping server", err)
		}
	}()

	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
