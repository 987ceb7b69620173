package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HFTSIM_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults
// plus environment are used, so the engine runs with zero configuration.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HFTSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setInt(&cfg.Engine.DefaultDepth, "HFTSIM_ENGINE_DEFAULT_DEPTH")
	setFloat64(&cfg.Engine.BaseQuoteSize, "HFTSIM_ENGINE_BASE_QUOTE_SIZE")
	setFloat64(&cfg.Engine.RiskAversion, "HFTSIM_ENGINE_RISK_AVERSION")
	setFloat64(&cfg.Engine.SpreadMultiplier, "HFTSIM_ENGINE_SPREAD_MULTIPLIER")
	setInt(&cfg.Engine.ToxicityWindow, "HFTSIM_ENGINE_TOXICITY_WINDOW")
	setFloat64(&cfg.Engine.MaxSlippage, "HFTSIM_ENGINE_MAX_SLIPPAGE")
	setInt(&cfg.Engine.EventBuffer, "HFTSIM_ENGINE_EVENT_BUFFER")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "HFTSIM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HFTSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HFTSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HFTSIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HFTSIM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HFTSIM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HFTSIM_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "HFTSIM_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "HFTSIM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HFTSIM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HFTSIM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HFTSIM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HFTSIM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HFTSIM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HFTSIM_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HFTSIM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HFTSIM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "HFTSIM_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "HFTSIM_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "HFTSIM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HFTSIM_S3_REGION")
	setStr(&cfg.S3.Bucket, "HFTSIM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HFTSIM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HFTSIM_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "HFTSIM_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "HFTSIM_S3_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "HFTSIM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HFTSIM_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "HFTSIM_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HFTSIM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HFTSIM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HFTSIM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HFTSIM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "HFTSIM_MODE")
	setStr(&cfg.LogLevel, "HFTSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
