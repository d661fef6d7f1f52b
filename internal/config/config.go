package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSigningKey is only acceptable outside production.
const DefaultSigningKey = "dev-signing-secret-change"

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env               string
	HTTPPort          string
	WorkerMetricsPort string
	BaseURL           string

	DatabaseDriver string
	DatabaseURL    string
	AutoMigrate    bool

	RedisAddr     string
	RedisPassword string
	QueueBackend  string

	JWTIssuer     string
	JWTSigningKey string
	SessionTTL    time.Duration
	CookieSecure  bool
	BcryptCost    int

	RateLimitPerMin  int
	RateLimitBackend string
	CORSOrigins      []string

	MailBackend    string
	MailFromName   string
	MailFrom       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendGridAPIKey string

	LogLevel string
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "classroll.db"),
		AutoMigrate:    boolEnv("AUTO_MIGRATE", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		QueueBackend:  getEnv("QUEUE_BACKEND", "memory"),

		JWTIssuer:     getEnv("JWT_ISSUER", "classroll"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", DefaultSigningKey),
		SessionTTL:    durationEnv("SESSION_TTL", time.Hour),
		CookieSecure:  boolEnv("COOKIE_SECURE", false),
		BcryptCost:    intEnv("BCRYPT_COST", 10),

		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 120),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		CORSOrigins:      listEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		MailBackend:    getEnv("MAIL_BACKEND", "log"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Classroll"),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@classroll.local"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       intEnv("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether APP_ENV names a production deployment.
func (a App) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Validate reports settings that cannot work together.
func (a App) Validate() error {
	var errs []error
	if a.IsProduction() && (a.JWTSigningKey == DefaultSigningKey || len(a.JWTSigningKey) < 32) {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set to at least 32 characters in production"))
	}
	switch a.DatabaseDriver {
	case "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", a.DatabaseDriver))
	}
	needsRedis := a.QueueBackend == "redis" || a.RateLimitBackend == "redis"
	if needsRedis && a.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required for redis queue or rate limiting"))
	}
	switch a.MailBackend {
	case "log":
	case "smtp":
		if a.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for MAIL_BACKEND=smtp"))
		}
	case "sendgrid":
		if a.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required for MAIL_BACKEND=sendgrid"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_BACKEND %q is not supported", a.MailBackend))
	}
	if a.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("invalid duration, using fallback", slog.String("key", key), slog.Duration("fallback", fallback))
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		slog.Warn("invalid bool, using fallback", slog.String("key", key), slog.Bool("fallback", fallback))
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return parsed
		}
		slog.Warn("invalid int, using fallback", slog.String("key", key), slog.Int("fallback", fallback))
	}
	return fallback
}

// listEnv splits a comma separated value, dropping empty items.
func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
