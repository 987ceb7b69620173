// Package config defines the top-level configuration for the hftsim engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by HFTSIM_* environment variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the session-wide quoting, toxicity, and execution
// defaults applied when an API caller omits a parameter.
type EngineConfig struct {
	DefaultDepth     int     `toml:"default_depth"`
	BaseQuoteSize    float64 `toml:"base_quote_size"`
	RiskAversion     float64 `toml:"risk_aversion"`
	SpreadMultiplier float64 `toml:"spread_multiplier"`
	ToxicityWindow   int     `toml:"toxicity_window"`
	MaxSlippage      float64 `toml:"max_slippage"`
	EventBuffer      int     `toml:"event_buffer"`
}

// RedisConfig holds Redis connection parameters for the live book cache and
// the signal bus. Disabled by default; the engine is fully functional
// without it.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for fill
// persistence.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for the fill
// archiver.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// ServerConfig holds the HTTP API server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables authentication
}

// NotifyConfig holds alerting channel credentials. Events filters which
// event types are forwarded; empty allows all.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns the built-in configuration used before any file or
// environment overrides are applied.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			DefaultDepth:     10,
			BaseQuoteSize:    100,
			RiskAversion:     0.01,
			SpreadMultiplier: 1.5,
			ToxicityWindow:   100,
			MaxSlippage:      0.001,
			EventBuffer:      256,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "hftsim",
			SSLMode:      "disable",
			PoolMaxConns: 4,
		},
		S3: S3Config{
			Region:        "us-east-1",
			RetentionDays: 30,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// Validate checks that the configuration is internally consistent. It is
// called once at startup, after Load.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "serve", "sim":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Engine.DefaultDepth < 1 {
		return fmt.Errorf("config: engine.default_depth must be >= 1, got %d", c.Engine.DefaultDepth)
	}
	if c.Engine.BaseQuoteSize <= 0 {
		return fmt.Errorf("config: engine.base_quote_size must be positive, got %v", c.Engine.BaseQuoteSize)
	}
	if c.Engine.SpreadMultiplier <= 0 {
		return fmt.Errorf("config: engine.spread_multiplier must be positive, got %v", c.Engine.SpreadMultiplier)
	}
	if c.Engine.MaxSlippage < 0 {
		return fmt.Errorf("config: engine.max_slippage must be >= 0, got %v", c.Engine.MaxSlippage)
	}
	if c.Engine.ToxicityWindow < 1 {
		return fmt.Errorf("config: engine.toxicity_window must be >= 1, got %d", c.Engine.ToxicityWindow)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr required when redis is enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
		return fmt.Errorf("config: postgres host/database (or dsn) required when postgres is enabled")
	}
	if c.S3.Enabled {
		if !c.Postgres.Enabled {
			return fmt.Errorf("config: s3 archiving requires postgres to be enabled")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: s3.bucket required when s3 is enabled")
		}
	}

	return nil
}
