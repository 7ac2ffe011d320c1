package config

import (
	"os"

	"github.com/Skotchmaster/veranda/pkg/config"
	"github.com/Skotchmaster/veranda/services/catalog/internal/search"
)

type ServiceConfig struct {
	config.Config

	// Search.URL empty keeps search on the database.
	Search search.Config

	AssetDir       string
	AssetBaseURL   string
	MaxUploadBytes int64
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalog"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	return ServiceConfig{
		Config: cfg,
		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			Username: os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    config.EnvDefault("ES_INDEX", "products"),
		},
		AssetDir:       config.EnvDefault("ASSET_DIR", "data/assets"),
		AssetBaseURL:   config.EnvDefault("ASSET_BASE_URL", "/assets"),
		MaxUploadBytes: int64(config.EnvIntDefault("MAX_UPLOAD_BYTES", 5<<20)),
	}
}
