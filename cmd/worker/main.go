// Command worker renders and archives the reports of completed previos.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/config"
	"github.com/dharsanguruparan/Previo/internal/database"
	"github.com/dharsanguruparan/Previo/internal/logging"
	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/repository"
	"github.com/dharsanguruparan/Previo/internal/s3storage"
	"github.com/dharsanguruparan/Previo/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, ServiceName: "previo-worker", JSON: cfg.Production()})

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.WithError(err).Fatal("ensure schema")
	}

	store, err := s3storage.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("init storage")
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		log.WithError(err).Fatal("ensure buckets")
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      log,
	})
	m := metrics.New("previo_worker")
	processor := worker.NewProcessor(worker.Deps{
		Previos:  repository.NewPrevioRepository(pool),
		Products: repository.NewProductRepository(pool),
		Reports:  repository.NewReportRepository(pool),
		Blobs:    store,
		Metrics:  m,
		Log:      log,
	})

	metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown()
		_ = metricsSrv.Close()
	}()

	log.WithField("concurrency", cfg.WorkerConcurrency).Info("worker started")
	if err := server.Run(processor.Handler()); err != nil {
		log.WithError(err).Error("worker stopped")
		os.Exit(1)
	}
}
