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

	"github.com/Skotchmaster/veranda/services/catalog/internal/assets"
	catalogcfg "github.com/Skotchmaster/veranda/services/catalog/internal/config"
	"github.com/Skotchmaster/veranda/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
	"github.com/Skotchmaster/veranda/services/catalog/internal/repo"
	"github.com/Skotchmaster/veranda/services/catalog/internal/search"
	"github.com/Skotchmaster/veranda/services/catalog/internal/service"
)

func main() {
	pkgconfig.LoadEnvFile("services/catalog/.env")
	cfg := catalogcfg.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = pkgdb.Migrate(ctx, db, models.All()...)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: db}}

	var elastic *search.Elastic
	if cfg.Search.URL != "" {
		elastic, err = search.NewElastic(cfg.Search)
		if err != nil {
			log.Fatalf("search: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := elastic.Ping(pingCtx); err != nil {
			// search falls back to the database until the cluster answers
			logger.Warn("search_unavailable", "url", cfg.Search.URL, "error", err)
		}
		pingCancel()
		svc.Index = elastic
		logger.Info("search_backend", "kind", "elasticsearch", "index", cfg.Search.Index)
	} else {
		logger.Info("search_backend", "kind", "database")
	}

	store, err := assets.NewDiskStore(cfg.AssetDir, cfg.AssetBaseURL, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("assets: %v", err)
	}
	svc.Assets = store

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("8M"))

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     authclient.NewClient(cfg.AuthHTTPURL),
		AssetDir:       cfg.AssetDir,
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("catalog listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = pkgdb.Close(db)

	logger.Info("catalog stopped")
}
