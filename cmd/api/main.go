// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/shopledger-be/internal/adapters/db"
	redis_a "github.com/ammerola/shopledger-be/internal/adapters/redis_adapter"
	"github.com/ammerola/shopledger-be/internal/core/services"
	"github.com/ammerola/shopledger-be/internal/handlers"
	"github.com/ammerola/shopledger-be/internal/handlers/middleware"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
	"github.com/ammerola/shopledger-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	// Initialize structured logger
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting shop ledger backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	// Load configuration
	slogger.Info("loading configuration")
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	// Create application context
	ctx := context.Background()

	// Resolve secrets before anything connects
	if secretName := os.Getenv("AWS_SECRET_NAME"); secretName != "" {
		sm, err := config.NewAWSSecretsManager(cfg.AWS.Region, secretName, slogger)
		if err != nil {
			slogger.Error("failed to initialize secrets manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := config.ApplySecrets(ctx, sm, cfg); err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize dependencies
	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	// Run database migrations if enabled
	if cfg.App.Environment != "production" {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			// Don't exit in development, just warn
		}
	}

	// Start background database health monitoring
	monitorCtx, monitorCancel := context.WithCancel(ctx)
	defer monitorCancel()
	deps.healthMonitor.Start(monitorCtx)
	defer deps.healthMonitor.Stop()

	// Setup HTTP server
	server := setupHTTPServer(cfg, deps, slogger)

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		// Gracefully shutdown HTTP server
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	healthMonitor  *db.HealthMonitor
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	saleHandler      *handlers.SaleHandler
	returnHandler    *handlers.ReturnHandler
	inventoryHandler *handlers.InventoryHandler
	customerHandler  *handlers.CustomerHandler
	dashboardHandler *handlers.DashboardHandler
	exportHandler    *handlers.ExportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	// Initialize database connection
	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementTimeout:   cfg.Database.StatementTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database
	deps.healthMonitor = db.NewHealthMonitor(database, cfg.Database.HealthCheckPeriod, logger)

	// Initialize Redis client
	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	// Create Redis cache wrapper
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	// Initialize Asynq client
	logger.Info("initializing Asynq client")

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	// Initialize repositories
	inventoryRepo := db.NewInventoryRepository(database, logger)
	saleRepo := db.NewSaleRepository(database, logger)
	returnRepo := db.NewReturnRepository(database, logger)
	customerRepo := db.NewCustomerRepository(database, logger)
	analyticsRepo := db.NewAnalyticsRepository(database, logger)

	// Initialize services
	inventoryService := services.NewInventoryService(inventoryRepo, logger)
	saleService := services.NewSaleService(saleRepo, inventoryRepo, customerRepo, database, cache, logger)
	returnService := services.NewReturnService(returnRepo, saleRepo, customerRepo, database, cache, logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, cache, logger)
	exportService := services.NewExportService(analyticsRepo, logger)

	// Initialize handlers
	deps.saleHandler = handlers.NewSaleHandler(saleService, logger)
	deps.returnHandler = handlers.NewReturnHandler(returnService, logger)
	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, logger)
	deps.customerHandler = handlers.NewCustomerHandler(customerRepo, logger)
	deps.dashboardHandler = handlers.NewDashboardHandler(analyticsService, logger)
	deps.exportHandler = handlers.NewExportHandler(exportService, logger)
	deps.healthHandler = handlers.NewHealthHandler(
		database,
		deps.healthMonitor,
		redisClient,
		deps.asynqInspector,
		cfg,
		logger,
	)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	// Create new ServeMux using Go 1.22+ features
	mux := http.NewServeMux()

	// Setup middleware chain
	var handler http.Handler = mux

	// Apply middleware in reverse order (innermost first)
	if cfg.App.Environment != "test" {
		handler = middleware.RequestID(handler)
		handler = middleware.Logger(logger)(handler)
		handler = middleware.Recovery(logger)(handler)
	}

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	// Register routes using Go 1.22 method-specific routing
	registerRoutes(mux, deps, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return server
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	// Health and readiness endpoints
	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Sale endpoints
	mux.HandleFunc("POST "+apiV1+"/sales", deps.saleHandler.CreateSale)
	mux.HandleFunc("GET "+apiV1+"/sales", deps.saleHandler.ListSales)
	mux.HandleFunc("GET "+apiV1+"/sales/{invoiceNo}", deps.saleHandler.GetSale)

	// Return endpoints
	mux.HandleFunc("POST "+apiV1+"/returns", deps.returnHandler.CreateReturn)
	mux.HandleFunc("GET "+apiV1+"/returns", deps.returnHandler.ListReturns)
	mux.HandleFunc("GET "+apiV1+"/returns/{id}", deps.returnHandler.GetReturn)
	mux.HandleFunc("PUT "+apiV1+"/returns/{id}", deps.returnHandler.ResolveReturn)

	// Inventory endpoints
	mux.HandleFunc("GET "+apiV1+"/inventory", deps.inventoryHandler.ListItems)
	mux.HandleFunc("GET "+apiV1+"/inventory/low-stock", deps.inventoryHandler.ListLowStock)
	mux.HandleFunc("GET "+apiV1+"/inventory/{id}", deps.inventoryHandler.GetItem)
	mux.HandleFunc("POST "+apiV1+"/inventory", deps.inventoryHandler.CreateItem)
	mux.HandleFunc("PUT "+apiV1+"/inventory/{id}", deps.inventoryHandler.UpdateItem)
	mux.HandleFunc("DELETE "+apiV1+"/inventory/{id}", deps.inventoryHandler.DeleteItem)

	// Customer endpoints
	mux.HandleFunc("POST "+apiV1+"/customers", deps.customerHandler.CreateCustomer)
	mux.HandleFunc("GET "+apiV1+"/customers", deps.customerHandler.ListCustomers)
	mux.HandleFunc("GET "+apiV1+"/customers/{id}", deps.customerHandler.GetCustomer)

	// Dashboard endpoints
	mux.HandleFunc("GET "+apiV1+"/dashboard/profits", deps.dashboardHandler.GetProfits)

	// Export endpoints
	mux.HandleFunc("GET "+apiV1+"/export/sales", deps.exportHandler.ExportSales)

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
