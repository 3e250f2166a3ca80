package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/backoffice-ledger/internal/config"
	"github.com/nimasrn/backoffice-ledger/internal/handlers"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/queue"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
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
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(config.Get().HttpRequestTimeout))
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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
		ClientName: config.Get().AppName,
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	// the api only publishes; consumers live in the reconciler
	reconcileQ, err := queue.NewQueue(context.Background(), redisAdap, queue.Config{
		Name:          config.Get().ReconcileQueueName,
		ConsumerGroup: config.Get().ReconcileConsumerGroup,
		ConsumerName:  "api",
		MaxLen:        config.Get().ReconcileMaxLen,
	})
	if err != nil {
		logger.Error("failed creating reconcile queue", "error", err)
		return
	}
	publisher := queue.NewJobPublisher(reconcileQ)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(config.Get().MetricsAddr, config.Get().MetricsURI)

	// repositories
	advisories := query.NewRecorder(redisAdap)
	guard := repository.NewIndexGuard(db, config.Get().QueryStrictIndexes)
	partyRepo := repository.NewPartyRepository(db)
	transactionRepo := repository.NewTransactionRepository(db, guard, advisories)
	invoiceRepo := repository.NewInvoiceRepository(db, guard, advisories)
	orderRepo := repository.NewOrderRepository(db, guard, advisories)
	productRepo := repository.NewProductRepository(db)

	// services
	balanceService := services.NewBalanceService(partyRepo, transactionRepo)
	transactionService := services.NewTransactionService(transactionRepo, partyRepo, balanceService, publisher)
	invoiceService := services.NewInvoiceService(db, invoiceRepo, partyRepo, transactionRepo, transactionService, publisher, services.RetryPolicy{
		MaxRetries: config.Get().InvoiceSaveMaxRetries,
		BaseDelay:  config.Get().InvoiceSaveBaseDelay,
	})
	orderService := services.NewOrderService(db, orderRepo, productRepo, partyRepo, services.RetryPolicy{
		MaxRetries: config.Get().OrderMaxRetries,
		BaseDelay:  config.Get().OrderBaseDelay,
	})
	partyService := services.NewPartyService(partyRepo)
	productService := services.NewProductService(productRepo)

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(partyService, balanceService, transactionService))
	handlers.RegisterInvoiceRoutes(g, handlers.NewInvoiceHandler(invoiceService))
	handlers.RegisterOrderRoutes(g, handlers.NewOrderHandler(orderService, productService))
	handlers.RegisterAdvisoryRoutes(g, handlers.NewAdvisoryHandler(advisories))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	}))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
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
