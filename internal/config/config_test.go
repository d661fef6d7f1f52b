package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "DATABASE_DRIVER", "SESSION_TTL", "CORS_ALLOWED_ORIGINS", "QUEUE_BACKEND"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "memory", cfg.QueueBackend)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("RATE_LIMIT_PER_MIN", " 10 ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func validApp() App {
	return App{
		Env:              "dev",
		DatabaseDriver:   "sqlite3",
		QueueBackend:     "memory",
		RateLimitBackend: "memory",
		MailBackend:      "log",
		JWTSigningKey:    DefaultSigningKey,
		SessionTTL:       time.Hour,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validApp().Validate())

	tests := []struct {
		name   string
		mutate func(*App)
		want   string
	}{
		{name: "default key in production", mutate: func(a *App) { a.Env = "production" }, want: "JWT_SIGNING_KEY"},
		{name: "unknown driver", mutate: func(a *App) { a.DatabaseDriver = "mysql" }, want: "DATABASE_DRIVER"},
		{name: "redis queue without addr", mutate: func(a *App) { a.QueueBackend = "redis" }, want: "REDIS_ADDR"},
		{name: "smtp without host", mutate: func(a *App) { a.MailBackend = "smtp" }, want: "SMTP_HOST"},
		{name: "sendgrid without key", mutate: func(a *App) { a.MailBackend = "sendgrid" }, want: "SENDGRID_API_KEY"},
		{name: "unknown mail backend", mutate: func(a *App) { a.MailBackend = "pigeon" }, want: "MAIL_BACKEND"},
		{name: "zero ttl", mutate: func(a *App) { a.SessionTTL = 0 }, want: "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApp()
			tt.mutate(&app)
			assert.ErrorContains(t, app.Validate(), tt.want)
		})
	}

	prod := validApp()
	prod.Env = "prod"
	prod.JWTSigningKey = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, prod.Validate())
}
