package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	catalogapp "github.com/crosslist/backend/internal/application/catalog"
	salesapp "github.com/crosslist/backend/internal/application/sales"
	syncapp "github.com/crosslist/backend/internal/application/sync"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/infrastructure/accounting"
	"github.com/crosslist/backend/internal/infrastructure/cache"
	"github.com/crosslist/backend/internal/infrastructure/config"
	"github.com/crosslist/backend/internal/infrastructure/logger"
	"github.com/crosslist/backend/internal/infrastructure/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/persistence"
	"github.com/crosslist/backend/internal/infrastructure/scheduler"
	"github.com/crosslist/backend/internal/interfaces/http/handler"
	"github.com/crosslist/backend/internal/interfaces/http/middleware"
	"github.com/crosslist/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting crosslist backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)

	// Initialize marketplace adapters. Registration order is the order
	// platforms are processed in during reconciliation.
	registry := marketplace.NewRegistry()

	if cfg.Marketplaces.Marktplaats.Enabled {
		if err := registry.Register(marketplace.NewMarktplaatsAdapter(cfg.Marketplaces.Marktplaats, log)); err != nil {
			log.Fatal("Failed to register Marktplaats adapter", zap.Error(err))
		}
	}

	// Browser-driven platforms share one browser session
	var session *marketplace.BrowserSession
	needsBrowser := cfg.Marketplaces.Vinted.Enabled ||
		cfg.Marketplaces.Depop.Enabled ||
		cfg.Marketplaces.Facebook.Enabled
	if needsBrowser {
		session = marketplace.NewBrowserSession(cfg.Browser, log)
		defer session.Close()
	}
	if cfg.Marketplaces.Vinted.Enabled {
		if err := registry.Register(marketplace.NewVintedAdapter(session, cfg.Marketplaces.Vinted, log)); err != nil {
			log.Fatal("Failed to register Vinted adapter", zap.Error(err))
		}
	}
	if cfg.Marketplaces.Depop.Enabled {
		if err := registry.Register(marketplace.NewDepopAdapter(session, cfg.Marketplaces.Depop, log)); err != nil {
			log.Fatal("Failed to register Depop adapter", zap.Error(err))
		}
	}
	if cfg.Marketplaces.Facebook.Enabled {
		if err := registry.Register(marketplace.NewFacebookAdapter(session, cfg.Marketplaces.Facebook, log)); err != nil {
			log.Fatal("Failed to register Facebook adapter", zap.Error(err))
		}
	}
	log.Info("Marketplace adapters registered",
		zap.Int("count", len(registry.Codes())),
		zap.Any("platforms", registry.Codes()),
	)

	// Select the product lock backend
	var locker syncapp.ProductLocker
	switch cfg.Locking.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		locker = cache.NewRedisProductLocker(redisClient, cfg.Locking.TTL)
		log.Info("Using Redis product locks", zap.Duration("ttl", cfg.Locking.TTL))
	default:
		locker = cache.NewMemoryProductLocker()
		log.Info("Using in-memory product locks")
	}

	// Initialize the accounting sink
	var sink sales.AccountingSink
	if cfg.Accounting.Enabled {
		sheetsSink, err := accounting.NewSheetsSink(cfg.Accounting, log)
		if err != nil {
			log.Fatal("Failed to initialize accounting sink", zap.Error(err))
		}
		sink = sheetsSink
		log.Info("Accounting sink enabled",
			zap.String("spreadsheet_id", cfg.Accounting.SpreadsheetID),
			zap.String("sheet", cfg.Accounting.SheetName),
		)
	}

	// Initialize application services
	var adapterRegistry integration.AdapterRegistry = registry
	recorder := salesapp.NewRecorder(saleRepo, sink, log)
	productService := catalogapp.NewProductService(productRepo, listingRepo, log)
	syncService := syncapp.NewSyncService(productRepo, listingRepo, saleRepo, adapterRegistry, recorder, locker, log)

	// Start the background reconciliation scheduler
	syncScheduler := scheduler.NewSyncScheduler(syncService, recorder, log, cfg.Scheduler)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService)
	syncHandler := handler.NewSyncHandler(syncService)
	salesHandler := handler.NewSalesHandler(recorder)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))

	// Register routes
	router.NewRouter(engine).
		Register(productHandler).
		Register(syncHandler).
		Register(salesHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping sync scheduler", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
