package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/gudangkita/warehouse-service/internal/warehouse"
	httpDelivery "github.com/gudangkita/warehouse-service/internal/warehouse/delivery/http"
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/internal/warehouse/repository"
	"github.com/gudangkita/warehouse-service/internal/warehouse/usecase/command"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/database"
	"github.com/gudangkita/warehouse-service/pkg/logger"
	"github.com/gudangkita/warehouse-service/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "warehouse-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting warehouse service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "warehousedb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := repository.NewGormUnitOfWorkFactory(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Kafka is optional: without brokers the service still serves HTTP,
	// it just neither publishes movement events nor hears the factory.
	var publisher *kafka.Publisher
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		publisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
		}
		defer publisher.Close()
	} else {
		logger.Logger.Warn().Msg("KAFKA_BROKERS not set, event publishing disabled")
	}

	// Initialize handler with Wire DI
	handler, err := warehouse.InitializeHTTPHandler(db, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	logger.Logger.Info().Msg("Warehouse handler initialized")

	// Consume factory-floor production events
	if brokers != "" {
		consumer, err := startProductionConsumer(db, strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
		defer consumer.Close()
	}

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8085")
	go startHTTPServer(handler, db, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

// startProductionConsumer subscribes to the factory topic and books
// finished output through the same command path the HTTP endpoint uses.
func startProductionConsumer(db *gorm.DB, brokers []string) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(
		brokers,
		getEnv("KAFKA_GROUP_ID", "warehouse-service"),
		[]string{kafka.TopicProductionCompleted},
	)
	if err != nil {
		return nil, err
	}

	uowf := warehouse.ProvideUnitOfWorkFactory(db)
	completeProd := command.NewCompleteProductionHandler(uowf, domain.NewStockLedger())

	consumer.RegisterHandler(kafka.EventTypeProductionCompleted, func(ctx context.Context, event kafka.ProductionCompletedEvent) error {
		_, err := completeProd.Handle(ctx, command.CompleteProductionCommand{
			OrderItemID: event.OrderItemID,
			Qty:         event.Qty,
			Actor:       event.Operator,
		})
		return err
	})

	if err := consumer.Start(context.Background()); err != nil {
		consumer.Close()
		return nil, err
	}
	return consumer, nil
}

func startHTTPServer(handler *httpDelivery.WarehouseHandler, db *gorm.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
