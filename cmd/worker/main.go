package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/db"
	"github.com/eperpus/membership/internal/notifications"
	"github.com/eperpus/membership/internal/observability"
	"github.com/eperpus/membership/internal/queue/redisclient"
	"github.com/eperpus/membership/internal/repo/postgres"
	"github.com/eperpus/membership/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	redisCli := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer func() { _ = redisCli.Close() }()

	prom := observability.NewProm(prometheus.NewRegistry())

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{},
	)

	digest := worker.NewDigest(worker.DigestConfig{
		DueSoonDays: cfg.DueSoonDays,
	}, postgres.NewLoansRepo(pool, prom), notifier, redisCli, prom, log)

	// probes on a side port so orchestrators can watch the worker

	var shuttingDown atomic.Bool

	probeSrv := &http.Server{
		Addr:              ":8081",
		Handler:           worker.HealthHandler(pool, shuttingDown.Load),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := probeSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("probe server failed", "err", err)
		}
	}()

	sweep := func() {
		sctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		if err := digest.Sweep(sctx); err != nil {
			log.Error("digest sweep failed", "err", err)
		}
	}

	c := cron.New()

	_, err = c.AddFunc(cfg.DigestSchedule, sweep)

	if err != nil {
		log.Error("bad digest schedule", "schedule", cfg.DigestSchedule, "err", err)
		os.Exit(1)
	}

	c.Start()
	log.Info("worker started", "schedule", cfg.DigestSchedule)

	// one sweep right away so a fresh deploy doesn't wait a day
	sweep()

	<-ctx.Done()
	shuttingDown.Store(true)
	log.Info("worker shutting down")

	cronCtx := c.Stop()

	select {
	case <-cronCtx.Done():
	case <-time.After(10 * time.Second):
		log.Error("cron stop timed out")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = probeSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
