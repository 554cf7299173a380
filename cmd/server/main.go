package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmtrung/gostore-inventory-service/config"
	"github.com/dmtrung/gostore-inventory-service/pkg/broker"
	"github.com/dmtrung/gostore-inventory-service/pkg/cache"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/dmtrung/gostore-inventory-service/pkg/metrics"
	"github.com/dmtrung/gostore-inventory-service/pkg/postgres"
	"github.com/dmtrung/gostore-inventory-service/pkg/tracing"

	cfgH "github.com/dmtrung/gostore-inventory-service/internal/invconfig/handler"
	cfgRepoPkg "github.com/dmtrung/gostore-inventory-service/internal/invconfig/repository"
	cfgUCPkg "github.com/dmtrung/gostore-inventory-service/internal/invconfig/usecase"

	invH "github.com/dmtrung/gostore-inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/dmtrung/gostore-inventory-service/internal/inventory/listener"
	invRepoPkg "github.com/dmtrung/gostore-inventory-service/internal/inventory/repository"
	invUCPkg "github.com/dmtrung/gostore-inventory-service/internal/inventory/usecase"

	grH "github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/handler"
	grRepoPkg "github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/repository"
	grUCPkg "github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/usecase"

	ordH "github.com/dmtrung/gostore-inventory-service/internal/order/handler"
	ordRepoPkg "github.com/dmtrung/gostore-inventory-service/internal/order/repository"
	ordUCPkg "github.com/dmtrung/gostore-inventory-service/internal/order/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "gostore-inventory-service"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	txManager := postgres.NewTxManager(db)

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Tracing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracerProvider(ctx, serviceName, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			appLogger.Warn("Could not initialize tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
			appLogger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.OTLPEndpoint))
		}
	}

	// 7. Initialize Metrics
	appMetrics := metrics.New()

	// 8. Initialize Repositories
	cfgRepo := cfgRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	grRepo := grRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)

	// 9. Initialize UseCases
	cfgUC := cfgUCPkg.NewConfigUseCase(cfgRepo, txManager, redisClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, txManager, cfgUC, redisClient, appMetrics, appLogger)
	grUC := grUCPkg.NewReceiptUseCase(grRepo, txManager, invUC, appMetrics, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, txManager, invUC, cfgUC, redisClient, appMetrics, appLogger)

	// 10. Initialize Listener
	invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, appLogger)
	go invListener.Start(ctx)

	// 11. Initialize Handlers
	cfgHandler := cfgH.NewConfigHandler(cfgUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	grHandler := grH.NewReceiptHandler(grUC, appLogger)
	ordHandler := ordH.NewOrderHandler(ordUC, appLogger)

	// 12. Start HTTP Server
	if cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	cfgHandler.RegisterRoutes(api)
	invHandler.RegisterRoutes(api)
	grHandler.RegisterRoutes(api)
	ordHandler.RegisterRoutes(api)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
