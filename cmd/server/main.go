// Command server runs the Previo HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/api"
	"github.com/dharsanguruparan/Previo/internal/config"
	"github.com/dharsanguruparan/Previo/internal/database"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/logging"
	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/previo"
	"github.com/dharsanguruparan/Previo/internal/queue"
	"github.com/dharsanguruparan/Previo/internal/report"
	"github.com/dharsanguruparan/Previo/internal/repository"
	"github.com/dharsanguruparan/Previo/internal/s3storage"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/signing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, ServiceName: "previo-api", JSON: cfg.Production()})

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

	sessions, closeSessions := openSessions(ctx, cfg, log)
	defer closeSessions()

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	m := metrics.New("previo")
	uploader := imageupload.New(store, repository.NewImageRepository(pool),
		imageupload.WithPolicy(imageupload.Policy{MaxBytes: cfg.MaxImageBytes, AllowedTypes: cfg.AllowedImageTypes}),
		imageupload.WithMetrics(m),
		imageupload.WithLogger(log),
	)
	reports := repository.NewReportRepository(pool)
	svc := previo.New(previo.Deps{
		Sessions:      sessions,
		Previos:       repository.NewPrevioRepository(pool),
		Products:      repository.NewProductRepository(pool),
		Organizations: repository.NewOrganizationRepository(pool),
		Photos:        uploader,
		Archiver:      queue.NewArchiver(reports, queueClient),
		Reports:       reports,
		Archive:       store,
		Generator:     report.New(),
		Signer:        signing.NewSigner(cfg.SigningSecret),
		Metrics:       m,
		Log:           log,
		PublicURL:     cfg.APIPublicURL,
		ShareTTL:      cfg.SignedURLTTL,
	})

	srv := api.New(svc, uploader, api.Options{
		Address: cfg.Address,
		Metrics: m,
		Log:     log,
		Ready:   pool.Ping,
	})
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func openSessions(ctx context.Context, cfg *config.Config, log *logrus.Entry) (session.Store, func()) {
	if cfg.SessionBackend == "memory" {
		log.Warn("wizard sessions kept in memory; they are lost on restart")
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	store := session.NewRedisStore(client, cfg.SessionTTL)
	if err := store.Ping(ctx); err != nil {
		log.WithError(err).Fatal("connect session redis")
	}
	return store, func() { _ = client.Close() }
}
