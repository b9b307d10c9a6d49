package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        string `env:"PORT"         envDefault:"3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"   envDefault:"dev-secret-change-me"`
	RequireAuth bool   `env:"REQUIRE_AUTH" envDefault:"false"`
	DevMode     bool   `env:"DEV_MODE"     envDefault:"false"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// BoardFile replaces the standard board with a JSON dataset.
	BoardFile         string `env:"BOARD_FILE"`
	PlacementMode     string `env:"DEBUG_GAME_PLACEMENT_MODE"     envDefault:"manual"`
	ReinforcementMode string `env:"DEBUG_GAME_REINFORCEMENT_MODE" envDefault:"manual"`

	SnapshotTTL  time.Duration `env:"SNAPSHOT_TTL"  envDefault:"1h"`
	IntentRate   float64       `env:"INTENT_RATE"   envDefault:"20"`
	IntentBurst  int           `env:"INTENT_BURST"  envDefault:"40"`
	BotServerURL string        `env:"BOT_SERVER_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BotServerURL == "" {
		cfg.BotServerURL = "ws://localhost:" + cfg.Port + "/ws"
	}
	return &cfg, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
