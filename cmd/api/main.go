package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/givecycle/marketplace/internal/config"
	"github.com/givecycle/marketplace/internal/events"
	gateway "github.com/givecycle/marketplace/internal/gateways"
	"github.com/givecycle/marketplace/internal/handlers"
	"github.com/givecycle/marketplace/internal/queue"
	"github.com/givecycle/marketplace/internal/repository"
	"github.com/givecycle/marketplace/internal/services"
	xhttp "github.com/givecycle/marketplace/pkg/http"
	"github.com/givecycle/marketplace/pkg/logger"
	"github.com/givecycle/marketplace/pkg/pg"
	"github.com/givecycle/marketplace/pkg/prom"
	"github.com/givecycle/marketplace/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
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
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	eventStream, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating event stream", "error", err)
		return
	}

	payments, err := gateway.NewClient(&gateway.Config{
		Providers: []gateway.ProviderConfig{
			{Name: "primary", URL: config.Get().PaymentPrimaryUrl, Weight: 100},
			{Name: "secondary", URL: config.Get().PaymentSecondaryUrl, Weight: 80},
			{Name: "backup", URL: config.Get().PaymentBackupUrl, Weight: 60},
		},
		Timeout:                 time.Second * 5,
		MaxRetries:              3,
		RetryDelay:              time.Millisecond * 100,
		MaxConns:                1000,
		ReadBufferSize:          1024 * 4,
		WriteBufferSize:         1024 * 4,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   60 * time.Second,
	})
	if err != nil {
		logger.Error("failed to create payment gateway", "error", err)
		return
	}

	hub := events.NewHub(16)

	donationRepo := repository.NewDonationRepository(db)
	listingRepo := repository.NewListingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// services
	donationService := services.NewDonationService(donationRepo, listingRepo, userRepo, services.NewHeuristicScorer(), hub, eventStream)
	marketplaceService := services.NewMarketplaceService(listingRepo, userRepo, transactionRepo, payments, config.Get().PaymentCurrency, hub, eventStream)
	ledgerService := services.NewLedgerService(transactionRepo, userRepo)
	accountService := services.NewAccountService(userRepo, notificationRepo)
	healthService := services.NewHealthService(db, redisAdap)

	// v1 handlers
	donationHandler := handlers.NewDonationHandler(donationService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	accountHandler := handlers.NewAccountHandler(accountService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterDonationRoutes(g, donationHandler)
	handlers.RegisterMarketplaceRoutes(g, marketplaceHandler)
	handlers.RegisterLedgerRoutes(g, ledgerHandler)
	handlers.RegisterAccountRoutes(g, accountHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go func() {
			prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		hub.Close()
		s.Shutdown()
	}
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
