// Package app holds the wiring shared by the api and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"classroll/internal/config"
	"classroll/internal/httpmiddleware"
	"classroll/internal/logging"
	"classroll/internal/mail"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Init loads an optional .env file, reads the configuration and installs
// the JSON logger.
func Init(w io.Writer) (config.App, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.App{}, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := config.Load()
	logger := logging.SetupDefault(w, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return config.App{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// Backends bundles the external connections a process holds.
type Backends struct {
	DB    *store.DB
	Redis *store.Redis
}

// Open connects to the database, migrating first when enabled, and to
// Redis when an address is configured.
func Open(ctx context.Context, cfg config.App, logger *slog.Logger) (*Backends, error) {
	if cfg.AutoMigrate {
		if err := store.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info("migrations applied", slog.String("driver", cfg.DatabaseDriver))
	}
	db, err := store.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	b := &Backends{DB: db}
	if cfg.RedisAddr != "" {
		b.Redis = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if !b.Redis.Healthy(ctx) {
			logger.Warn("redis not reachable at startup", slog.String("addr", cfg.RedisAddr))
		}
	}
	return b, nil
}

// Close releases every connection.
func (b *Backends) Close() error {
	return errors.Join(b.DB.Close(), b.Redis.Close())
}

// NewQueue picks the job queue backend.
func NewQueue(cfg config.App, b *Backends) queue.Queue {
	if cfg.QueueBackend == "redis" && b.Redis != nil {
		return queue.NewRedisQueue(b.Redis.Client, queue.DefaultKey)
	}
	return queue.NewInMemory(64)
}

// NewLimiter picks the rate limiter backend.
func NewLimiter(cfg config.App, b *Backends) httpmiddleware.Limiter {
	if cfg.RateLimitBackend == "redis" && b.Redis != nil {
		return httpmiddleware.NewRedisLimiter(b.Redis.Client, cfg.RateLimitPerMin)
	}
	return httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
}

// NewMailer picks the outbound email provider.
func NewMailer(cfg config.App, logger *slog.Logger) mail.Mailer {
	switch cfg.MailBackend {
	case "smtp":
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	case "sendgrid":
		return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	default:
		return mail.NewLogMailer(logger)
	}
}
