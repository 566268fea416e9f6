/**
 * @description
 * This is the main entry point for the borrowing-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, external API clients, the message broker producer, the repository,
 * the core application service, and the HTTP server. It wires everything together
 * and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/catalogclient, pkg/directoryclient: Clients for the catalog and directory services.
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

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/librisuite/borrowing-service/internal/api"
	"github.com/librisuite/borrowing-service/internal/app"
	"github.com/librisuite/borrowing-service/internal/config"
	"github.com/librisuite/borrowing-service/internal/store"
	"github.com/librisuite/borrowing-service/pkg/catalogclient"
	"github.com/librisuite/borrowing-service/pkg/directoryclient"
	brrabbit "github.com/librisuite/borrowing-service/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.CatalogServiceURL) == "" || strings.TrimSpace(cfg.DirectoryServiceURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"catalog and directory service urls must be configured\" catalog_url_set=%t directory_url_set=%t",
			strings.TrimSpace(cfg.CatalogServiceURL) != "",
			strings.TrimSpace(cfg.DirectoryServiceURL) != "",
		)
	}

	log.Printf("level=info component=bootstrap msg=\"starting borrowing-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer. Notifications are best-effort, so a
	// missing broker degrades to the no-op fallback instead of failing boot.
	var notifier brrabbit.Publisher
	rabbitProducer, err := brrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		notifier = &brrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		notifier = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the clients for the catalog and directory services.
	gatewayTimeout := time.Duration(cfg.GatewayTimeoutMs) * time.Millisecond
	catalogClient := catalogclient.NewClient(cfg.CatalogServiceURL, gatewayTimeout)
	directoryClient := directoryclient.NewClient(cfg.DirectoryServiceURL, gatewayTimeout)

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	borrowingService := app.NewService(
		repository,
		catalogClient,
		directoryClient,
		notifier,
		cfg.NotificationExchange,
		cfg.LoanPeriodDays,
		gatewayTimeout,
	)

	// Optional Redis-backed title cache. The service runs with direct catalog
	// lookups when Redis is missing or unreachable.
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; title cache disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; title cache disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				borrowingService.SetTitleCache(app.NewRedisTitleCache(
					redisClient,
					cfg.RedisTitlePrefix,
					time.Duration(cfg.TitleCacheTTLMinutes)*time.Minute,
				))
				log.Println("level=info component=bootstrap msg=\"redis connected; title cache enabled\"")
			}
		}
	}

	// Initialize the API handlers.
	borrowingHandlers := api.NewBorrowingHandlers(borrowingService, cfg.AllBorrowsMaxPageSize)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/borrowings", api.BorrowingRoutes(borrowingHandlers))

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
