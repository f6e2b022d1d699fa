/**
 * @description
 * This is the main entry point for the quote-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, message broker, repository, the core application service, and the
 * HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nhaphang/quote-service/internal/api"
	"github.com/nhaphang/quote-service/internal/app"
	"github.com/nhaphang/quote-service/internal/config"
	"github.com/nhaphang/quote-service/internal/store"
	rmrabbit "github.com/nhaphang/quote-service/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.AdminJWTSecret) == "" {
		log.Printf("level=warn component=bootstrap msg=\"admin jwt secret not configured; admin api disabled\" env=ADMIN_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting quote-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Quote traffic is read-heavy and bursty around campaigns.
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

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSchema()
	if err := store.EnsureSchema(schemaCtx, dbpool); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"schema setup failed\" err=%v", err)
	}

	// Initialize the RabbitMQ producer to publish lead events. The service
	// must boot without the broker; a no-op fallback keeps lead intake alive.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL, cfg.LeadEventExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	var redisClient *redis.Client
	rateLimitingEnabled := cfg.QuoteRateLimitPerMinute > 0 || cfg.LeadRateLimitPerMinute > 0
	if rateLimitingEnabled {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	quoteService := app.NewService(repository, producer, app.Defaults{
		ExchangeRate:         cfg.FallbackExchangeRate,
		ServiceFeePercent:    cfg.DefaultServiceFeePercent,
		ShippingRatePerKgVND: cfg.DefaultShippingRateVND,
	})

	var rateLimiter api.RateLimiter
	if redisClient != nil {
		rateLimiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Initialize the API handlers and router.
	quoteHandlers := api.NewQuoteHandlers(quoteService)
	router := api.QuoteRoutes(quoteHandlers, api.RouterOptions{
		AdminJWTSecret:          cfg.AdminJWTSecret,
		AdminTokenMaxAge:        time.Duration(cfg.AdminTokenTTLMinutes) * time.Minute,
		RateLimiter:             rateLimiter,
		QuoteRateLimitPerMinute: cfg.QuoteRateLimitPerMinute,
		LeadRateLimitPerMinute:  cfg.LeadRateLimitPerMinute,
	})

	// Start the HTTP server.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
