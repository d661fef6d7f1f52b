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

	"github.com/prometheus/client_golang/prometheus"

	"classroll/internal/app"
	"classroll/internal/mail"
	"classroll/internal/metrics"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Worker consumes queued email jobs from Redis and sends them.
func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, logger, err := app.Init(os.Stdout)
	if err != nil {
		return err
	}
	if cfg.QueueBackend != "redis" {
		return errors.New("worker needs QUEUE_BACKEND=redis; the api drains in-memory queues itself")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the worker only needs Redis; config validation guarantees an address
	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable yet, consumer will retry", slog.String("addr", cfg.RedisAddr))
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	metricsSrv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	defer metricsSrv.Close()

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	dispatcher := mail.NewDispatcher(app.NewMailer(cfg, logger), cfg.BaseURL, logger, collector)
	return dispatcher.Run(ctx, q)
}
