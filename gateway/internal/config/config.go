package config

import (
	"os"

	"github.com/Skotchmaster/veranda/pkg/config"
)

type Config struct {
	ListenAddr string
	AuthURL    string
	CatalogURL string
	QuotesURL  string
	JWTSecret  []byte

	// AllowOrigins feeds CORS. Empty allows any origin.
	AllowOrigins []string
	SecureCookie bool

	LogLevel string
	LogFile  string
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:   config.EnvDefault("GATEWAY_ADDR", ":8080"),
		AuthURL:      os.Getenv("AUTH_URL"),
		CatalogURL:   os.Getenv("CATALOG_URL"),
		QuotesURL:    os.Getenv("QUOTES_URL"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		AllowOrigins: config.CSV(os.Getenv("ALLOW_ORIGINS")),
		SecureCookie: os.Getenv("COOKIE_SECURE") == "true",
		LogLevel:     config.EnvDefault("LOG_LEVEL", "info"),
		LogFile:      os.Getenv("LOG_FILE"),
	}
	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.QuotesURL, "QUOTES_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	return cfg
}
