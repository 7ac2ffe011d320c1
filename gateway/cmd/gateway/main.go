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

	"github.com/Skotchmaster/veranda/gateway/internal/config"
	"github.com/Skotchmaster/veranda/gateway/internal/httpserver"
	pkgconfig "github.com/Skotchmaster/veranda/pkg/config"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/pkg/middleware/csrf"
)

func main() {
	pkgconfig.LoadEnvFile("gateway/.env")
	cfg := config.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	// no WriteTimeout: quote events are streamed through the gateway
	e.Server.ReadHeaderTimeout = 3 * time.Second

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.SecureCookie
	csrfCfg.SkipPrefixes = []string{"/health/", "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/refresh"}

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:      cfg.AuthURL,
		CatalogURL:   cfg.CatalogURL,
		QuotesURL:    cfg.QuotesURL,
		CSRFConfig:   csrfCfg,
		JWTSecret:    cfg.JWTSecret,
		AllowOrigins: cfg.AllowOrigins,
		Logger:       logger,
	}); err != nil {
		log.Fatal(err)
	}

	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
