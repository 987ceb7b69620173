package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantfold/hftsim/internal/blob/s3"
	"github.com/quantfold/hftsim/internal/cache/redis"
	"github.com/quantfold/hftsim/internal/config"
	"github.com/quantfold/hftsim/internal/domain"
	"github.com/quantfold/hftsim/internal/notify"
	"github.com/quantfold/hftsim/internal/session"
	"github.com/quantfold/hftsim/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. The
// session is always present; cache, store, and blob dependencies are nil
// when their backend is disabled in the configuration.
type Dependencies struct {
	Session *session.Session

	// Redis (nil when disabled)
	BookCache domain.BookCache
	SignalBus domain.SignalBus

	// Postgres (nil when disabled)
	FillStore domain.FillStore

	// S3 (nil when disabled; Archiver also requires Postgres)
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	deps.Session = session.New(session.Config{
		DefaultDepth:     cfg.Engine.DefaultDepth,
		BaseQuoteSize:    cfg.Engine.BaseQuoteSize,
		RiskAversion:     cfg.Engine.RiskAversion,
		SpreadMultiplier: cfg.Engine.SpreadMultiplier,
		ToxicityWindow:   cfg.Engine.ToxicityWindow,
		MaxSlippage:      cfg.Engine.MaxSlippage,
		EventBuffer:      cfg.Engine.EventBuffer,
	}, logger)
	closers = append(closers, deps.Session.Close)

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.BookCache = redis.NewBookCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.FillStore = postgres.NewFillStore(pgClient.Pool())
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		if deps.FillStore != nil {
			deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.FillStore)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
