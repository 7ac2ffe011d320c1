package config

import (
	"os"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/pkg/config"
)

type ServiceConfig struct {
	config.Config

	NotifyTopic   string
	NotifyGroupID string
	RelayPoolSize int
	HubBuffer     int
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quotes"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	group := os.Getenv("NOTIFY_GROUP_ID")
	if group == "" {
		// every instance needs its own group to see every envelope
		host, _ := os.Hostname()
		group = "quotes-" + host + "-" + uuid.NewString()[:8]
	}

	return ServiceConfig{
		Config:        cfg,
		NotifyTopic:   config.EnvDefault("NOTIFY_TOPIC", "quote_notifications"),
		NotifyGroupID: group,
		RelayPoolSize: config.EnvIntDefault("RELAY_POOL_SIZE", 64),
		HubBuffer:     config.EnvIntDefault("HUB_BUFFER", 32),
	}
}
