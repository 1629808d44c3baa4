/**
 * @description
 * This is the main entry point for the payments-service. It is responsible for
 * initializing all components of the service: configuration, database
 * connection pool, message broker, rate limiter, token manager, wallet
 * provisioner, fee engine, repository, the core application service, the
 * reconciliation scheduler, and the HTTP server. It wires everything together
 * and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for transfer rate limiting.
 * - github.com/robfig/cron/v3: Scheduler for the ledger reconciliation job.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq, pkg/token, pkg/wallet: Messaging, auth token, and wallet helpers.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/paylink/payments-service/internal/api"
	"github.com/paylink/payments-service/internal/app"
	"github.com/paylink/payments-service/internal/config"
	"github.com/paylink/payments-service/internal/store"
	"github.com/paylink/payments-service/pkg/rabbitmq"
	"github.com/paylink/payments-service/pkg/token"
	"github.com/paylink/payments-service/pkg/wallet"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}
	if strings.TrimSpace(cfg.WalletSeedSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"wallet seed secret must be configured\" env=PRIVATE_KEY_SEED")
	}

	log.Printf("level=info component=bootstrap msg=\"starting payments-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish payment events. The service
	// only publishes, so a missing broker degrades to a no-op producer rather
	// than blocking boot.
	var events rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.PaymentEventExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		events = &rabbitmq.NopProducer{}
	} else {
		defer producer.Close()
		events = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Redis backs the transfer rate limiter. A missing or unreachable Redis
	// disables rate limiting but does not prevent boot.
	var redisClient *redis.Client
	if cfg.TransferRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Ensure required tables exist (idempotent).
	if err := store.EnsureSchema(context.Background(), dbpool); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"schema bootstrap failed (may already exist)\" err=%v", err)
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	tokens := token.NewManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	wallets := wallet.NewProvisioner(cfg.WalletSeedSecret)
	fees := app.NewFeeEngine(cfg.INRPerUSD, cfg.InvoiceThresholdUSDCents, cfg.InvoiceThresholdINRPaise)

	// Initialize the core application service with its dependencies.
	paymentService := app.NewService(repository, fees, wallets, tokens, events, app.ServiceConfig{
		FreeTransferLimit:          cfg.FreeTransferLimit,
		INRPerUSD:                  cfg.INRPerUSD,
		INRTopUpRate:               cfg.INRTopUpRate,
		WalletSeedSecret:           cfg.WalletSeedSecret,
		TransferRateLimitPerMinute: cfg.TransferRateLimitPerMinute,
		OpeningBalances: app.OpeningBalances{
			Default: cfg.OpeningBalanceCents,
			Premium: cfg.PremiumOpeningBalanceCents,
			Admin:   cfg.AdminOpeningBalanceCents,
		},
	})
	if redisClient != nil {
		paymentService.SetTransferRateLimiter(
			app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
		)
	}

	// Schedule the ledger reconciliation job: fails stale pending records and
	// audits the dual-write journal for unpaired entries.
	reconciler := app.NewReconciler(
		repository,
		time.Duration(cfg.PendingCutoffMinutes)*time.Minute,
		time.Duration(cfg.PairAuditWindowHours)*time.Hour,
	)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		reconciler.Run(ctx)
	}); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"reconcile job schedule failed\" spec=%q err=%v", cfg.ReconcileCronSpec, err)
	}
	scheduler.Start()
	log.Printf("level=info component=bootstrap msg=\"reconcile job scheduled\" spec=%q", cfg.ReconcileCronSpec)

	// Initialize the API handlers.
	paymentHandlers := api.NewPaymentHandlers(paymentService)

	// Set up the HTTP router and mount the API routes.
	router := chi.NewRouter()
	router.Mount("/api", api.NewRouter(paymentHandlers, tokens))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
