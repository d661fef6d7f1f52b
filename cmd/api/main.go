package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"classroll/internal/account"
	"classroll/internal/app"
	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/httpapi"
	"classroll/internal/mail"
	"classroll/internal/metrics"
	"classroll/internal/queue"
	"classroll/internal/roster"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, logger, err := app.Init(os.Stdout)
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	jobs := app.NewQueue(cfg, backends)
	if mem, ok := jobs.(*queue.InMemory); ok {
		// no worker process shares an in-memory queue, so drain it here
		dispatcher := mail.NewDispatcher(app.NewMailer(cfg, logger), cfg.BaseURL, logger, collector)
		go func() {
			if err := dispatcher.Run(ctx, mem); err != nil {
				logger.Error("mail dispatcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	students := roster.NewRepository(backends.DB.Client)
	health := map[string]httpapi.HealthChecker{"db": backends.DB}
	if backends.Redis != nil {
		health["redis"] = backends.Redis
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Accounts:   account.NewService(account.NewRepository(backends.DB.Client), jobs, logger, cfg.BcryptCost),
		Roster:     roster.NewService(students),
		Attendance: attendance.NewService(attendance.NewRepository(backends.DB.Client), students, attendance.WithRecorder(collector)),
		Sessions: auth.Sessions{
			SigningKey:   cfg.JWTSigningKey,
			Issuer:       cfg.JWTIssuer,
			TTL:          cfg.SessionTTL,
			SecureCookie: cfg.CookieSecure,
		},
		Logger:         logger,
		Limiter:        app.NewLimiter(cfg, backends),
		Observer:       collector,
		MetricsHandler: metrics.Handler(reg),
		Health:         health,
		CORSOrigins:    cfg.CORSOrigins,
		HSTS:           cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
