package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/arga-dev/backend-envio/internal/config"
	"github.com/arga-dev/backend-envio/internal/invoice"
	"github.com/arga-dev/backend-envio/internal/lock"
	"github.com/arga-dev/backend-envio/internal/obs"
	"github.com/arga-dev/backend-envio/internal/shipment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("json", "info").With().Str("component", "worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "envio-worker"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	obs.MustRegisterDomainMetrics("envio", nil)

	invoiceSvc := &invoice.Service{
		Invoices:   invoice.Store{DB: pool},
		Shipments:  shipment.Store{DB: pool},
		TaxRateBPS: cfg.PricingTaxBPS,
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	clientOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for locks")
	}
	redisClient := redis.NewClient(clientOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	locker := lock.Locker{R: redisClient}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			cfg.InvoiceQueueName: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(invoice.TypeGenerate, invoice.NewGenerateHandler(invoiceSvc, locker, logger))

	logger.Info().
		Str("queue", cfg.InvoiceQueueName).
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}
