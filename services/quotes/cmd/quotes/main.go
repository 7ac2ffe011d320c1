package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/veranda/pkg/authclient"
	pkgconfig "github.com/Skotchmaster/veranda/pkg/config"
	pkgdb "github.com/Skotchmaster/veranda/pkg/db"
	"github.com/Skotchmaster/veranda/pkg/logging"
	loggingmw "github.com/Skotchmaster/veranda/pkg/middleware/logging"

	quotescfg "github.com/Skotchmaster/veranda/services/quotes/internal/config"
	"github.com/Skotchmaster/veranda/services/quotes/internal/httpserver"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
	"github.com/Skotchmaster/veranda/services/quotes/internal/notify"
	"github.com/Skotchmaster/veranda/services/quotes/internal/repo"
	"github.com/Skotchmaster/veranda/services/quotes/internal/service"
)

func main() {
	pkgconfig.LoadEnvFile("services/quotes/.env")
	cfg := quotescfg.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = pkgdb.Migrate(ctx, db, models.Owned()...)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	hub := notify.NewHub(cfg.HubBuffer)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var publisher notify.Publisher = hub
	var kafkaPub *notify.KafkaPublisher
	var consumer *notify.KafkaConsumer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.NotifyTopic)
		consumer = notify.NewKafkaConsumer(cfg.KafkaBrokers, cfg.NotifyTopic, cfg.NotifyGroupID, hub, logger)
		publisher = kafkaPub
		go func() {
			if err := consumer.Run(runCtx); err != nil {
				logger.Error("notify_consumer_stopped", "error", err)
			}
		}()
		logger.Info("notify_transport", "kind", "kafka", "topic", cfg.NotifyTopic, "group", cfg.NotifyGroupID)
	} else {
		logger.Info("notify_transport", "kind", "in-process")
	}

	relay, err := notify.NewRelay(publisher, notify.RelayOptions{PoolSize: cfg.RelayPoolSize})
	if err != nil {
		log.Fatalf("relay: %v", err)
	}

	svc := service.New(&repo.GormRepo{DB: db}, relay)
	handler := &httpserver.QuotesHTTP{Svc: svc, Hub: hub}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		QuotesHandler: handler,
		JWTSecret:     cfg.JWTAccessSecret,
		AuthClient:    authclient.NewClient(cfg.AuthHTTPURL),
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	})

	// no WriteTimeout: /quotes/events holds the response open
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(hub.CloseAll)

	go func() {
		logger.Info("quotes listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopRun()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := relay.Close(5 * time.Second); err != nil {
		logger.Warn("relay_close", "error", err)
	}
	if kafkaPub != nil {
		_ = kafkaPub.Close()
	}
	if consumer != nil {
		_ = consumer.Close()
	}
	_ = pkgdb.Close(db)

	logger.Info("quotes stopped")
}
