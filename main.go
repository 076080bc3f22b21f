package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"grabeat/internal/config"
	"grabeat/internal/database/migrations"
	"grabeat/internal/kafka"
	"grabeat/internal/logger"
	"grabeat/internal/mail"
	"grabeat/internal/menu"
	menucache "grabeat/internal/menu/cache"
	menudb "grabeat/internal/menu/db"
	"grabeat/internal/menu/menu_api"
	"grabeat/internal/order"
	orderdb "grabeat/internal/order/db"
	"grabeat/internal/order/order_api"
	"grabeat/internal/promocode"
	promodb "grabeat/internal/promocode/db"
)

func connectPostgres(cfg config.DatabaseConfig, logger *logger.Logger) *bun.DB {
	if cfg.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Grab & Eat API initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, logger)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg.Redis, logger)
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.MigrateUp(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
	}
	logger.Info("DATABASE", "Schema migrations applied")

	var events order.Publisher = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()

		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		events = kafkaProducer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	mailer := mail.NewMailer(cfg.Email, cfg.App.FrontendURL, logger)

	promoEngine := promocode.NewEngine(&promodb.DB{Bun: bunDB}, mailer, logger)

	gateway, err := order.NewStripeGateway(
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
		cfg.App.FrontendURL,
		cfg.Stripe.Currency,
		logger,
	)
	if err != nil {
		logger.Fatal("STRIPE", fmt.Sprintf("Failed to initialize payment gateway: %v", err))
	}

	orderService := order.NewOrderService(
		&orderdb.DB{Bun: bunDB},
		gateway,
		promoEngine,
		mailer,
		events,
		logger,
	)

	menuService := menu.NewService(
		&menudb.DB{Bun: bunDB},
		menucache.NewCache(redisClient),
		cfg.App.UploadsDir,
		cfg.App.BackendURL,
		logger,
	)

	orderHandler := order_api.NewOrderHandler(orderService, logger)
	menuHandler := menu_api.NewMenuHandler(menuService, logger)

	logger.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", orderHandler.RegisterRoutes)
		r.Route("/menu", menuHandler.RegisterRoutes)
	})
	logger.Info("ROUTER", "Order routes registered under /api/orders")
	logger.Info("ROUTER", "Menu routes registered under /api/menu")

	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.App.UploadsDir)))
	r.Get("/uploads/*", uploadsFS.ServeHTTP)
	logger.Info("ROUTER", fmt.Sprintf("Serving uploads from %s under /uploads", cfg.App.UploadsDir))

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Grab & Eat API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Grab & Eat API shutdown complete")
	}
}
