package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/backoffice-ledger/internal/config"
	"github.com/nimasrn/backoffice-ledger/internal/processor"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/queue"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/nimasrn/backoffice-ledger/pkg/prom"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting reconciler", "version", version, "commit", commit, "date", date)

	readConf := pg.Config{
		User:         config.Get().PostgresReadUser,
		Host:         config.Get().PostgresReadHost,
		Port:         config.Get().PostgresReadPort,
		Password:     config.Get().PostgresReadPassword,
		Database:     config.Get().PostgresReadDatabase,
		MaxOpenConns: config.Get().PostgresMaxOpenConns,
	}
	writeConf := pg.Config{
		User:         config.Get().PostgresWriteUser,
		Host:         config.Get().PostgresWriteHost,
		Port:         config.Get().PostgresWritePort,
		Password:     config.Get().PostgresWritePassword,
		Database:     config.Get().PostgresWriteDatabase,
		MaxOpenConns: config.Get().PostgresMaxOpenConns,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: config.Get().AppName + "-reconciler",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(config.Get().MetricsAddr, config.Get().MetricsURI)

	queueConf := queue.Config{
		Name:              config.Get().ReconcileQueueName,
		ConsumerGroup:     config.Get().ReconcileConsumerGroup,
		ConsumerName:      config.Get().ReconcileConsumerName,
		MaxRetries:        config.Get().ReconcileMaxRetries,
		VisibilityTimeout: config.Get().ReconcileVisibilityTimeout,
		PollInterval:      config.Get().ReconcilePollInterval,
		BatchSize:         config.Get().ReconcileBatchSize,
		MaxLen:            config.Get().ReconcileMaxLen,
		EnableDLQ:         true,
	}
	if queueConf.ConsumerName == "" {
		queueConf.ConsumerName = hostname
	}

	// jobs raised while reconciling go back onto the same stream
	publishQ, err := queue.NewQueue(context.Background(), redisAdap, queueConf)
	if err != nil {
		logger.Error("failed creating reconcile queue", "error", err)
		return
	}
	publisher := queue.NewJobPublisher(publishQ)

	advisories := query.NewRecorder(redisAdap)
	guard := repository.NewIndexGuard(db, config.Get().QueryStrictIndexes)
	partyRepo := repository.NewPartyRepository(db)
	transactionRepo := repository.NewTransactionRepository(db, guard, advisories)
	invoiceRepo := repository.NewInvoiceRepository(db, guard, advisories)

	balanceService := services.NewBalanceService(partyRepo, transactionRepo)
	transactionService := services.NewTransactionService(transactionRepo, partyRepo, balanceService, publisher)
	invoiceService := services.NewInvoiceService(db, invoiceRepo, partyRepo, transactionRepo, transactionService, publisher, services.RetryPolicy{
		MaxRetries: config.Get().InvoiceSaveMaxRetries,
		BaseDelay:  config.Get().InvoiceSaveBaseDelay,
	})

	metrics := processor.NewServiceMetrics()
	idempotency := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())
	reconcile := processor.NewReconcileProcessor(invoiceService, balanceService, idempotency, metrics)

	service := processor.NewReconcilerService(redisAdap, reconcile, invoiceService, metrics, processor.Options{
		Queue:         queueConf,
		Consumers:     2,
		Workers:       config.Get().ReconcileWorkers,
		SweepInterval: config.Get().ReconcileSweepInterval,
		SweepMinAge:   config.Get().ReconcileSweepMinAge,
	})

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(context.Background()); err != nil {
		logger.Error("failed to start reconciler", "error", err)
		return
	}

	<-c
	service.Stop()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
