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

	pkgconfig "github.com/Skotchmaster/veranda/pkg/config"
	pkgdb "github.com/Skotchmaster/veranda/pkg/db"
	"github.com/Skotchmaster/veranda/pkg/logging"
	loggingmw "github.com/Skotchmaster/veranda/pkg/middleware/logging"

	authcfg "github.com/Skotchmaster/veranda/services/auth/internal/config"
	"github.com/Skotchmaster/veranda/services/auth/internal/httpserver"
	"github.com/Skotchmaster/veranda/services/auth/internal/models"
	"github.com/Skotchmaster/veranda/services/auth/internal/repo"
	"github.com/Skotchmaster/veranda/services/auth/internal/service"
)

func main() {
	pkgconfig.LoadEnvFile("services/auth/.env")
	cfg := authcfg.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := pkgdb.Migrate(initCtx, db, &models.User{}, &models.RefreshToken{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	svc := &service.AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	if cfg.AdminEmail != "" {
		if err := svc.EnsureAdmin(logging.IntoContext(initCtx, logger), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			log.Fatalf("admin provisioning: %v", err)
		}
		logger.Info("admin_provisioned", "email", cfg.AdminEmail)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		JWTSecret:   cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("auth listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	_ = pkgdb.Close(db)
}
